package http

import (
	"github.com/lumen-web/lumen/internal/strutil"
)

// MaxHeaders caps how many header lines a request may carry. The span table
// is fixed-size on purpose: it bounds per-connection memory and makes the
// header section's worst case cheap to reason about.
const MaxHeaders = 32

// HeaderTable records every header line of a request as a span into the
// connection buffer, plus direct spans for the headers the core consumes
// itself. Values alias the request buffer and stay valid until the
// connection reuses it.
type HeaderTable struct {
	// Lines holds raw "Name: value" lines in wire order.
	Lines []string

	AcceptEncoding  string
	Authorization   string
	Connection      string
	ContentLength   string
	ContentType     string
	Cookie          string
	IfModifiedSince string
	RangeRaw        string

	lines [MaxHeaders]string
}

func (t *HeaderTable) Reset() {
	*t = HeaderTable{}
	t.Lines = t.lines[:0]
}

// Append records a raw header line. Reports false once the table is full.
func (t *HeaderTable) Append(line string) bool {
	if len(t.Lines) >= MaxHeaders {
		return false
	}

	t.Lines = append(t.Lines, line)

	return true
}

// Lookup finds a header by name, case-insensitively, and returns the value
// after the ": " separator. Headers from the interesting set are found the
// same way as any other.
func (t *HeaderTable) Lookup(name string) (value string, found bool) {
	for _, line := range t.Lines {
		if len(line) < len(name)+2 {
			continue
		}

		if strutil.CmpFold(line[:len(name)], name) && line[len(name)] == ':' && line[len(name)+1] == ' ' {
			return line[len(name)+2:], true
		}
	}

	return "", false
}
