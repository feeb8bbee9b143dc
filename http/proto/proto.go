package proto

type Protocol uint8

const (
	Unknown Protocol = iota
	HTTP10
	HTTP11
)

// String returns the protocol token as it appears on the wire.
func (p Protocol) String() string {
	lut := [...]string{HTTP10: "HTTP/1.0", HTTP11: "HTTP/1.1"}
	if int(p) >= len(lut) {
		return ""
	}

	return lut[p]
}

const tokenLength = len("HTTP/x.x")

// FromBytes recognizes exactly the two protocol tokens the core speaks.
// Anything else, including valid-looking versions such as HTTP/0.9 or
// HTTP/2, stays Unknown.
func FromBytes(raw []byte) Protocol {
	if len(raw) != tokenLength {
		return Unknown
	}

	switch string(raw) {
	case "HTTP/1.0":
		return HTTP10
	case "HTTP/1.1":
		return HTTP11
	}

	return Unknown
}
