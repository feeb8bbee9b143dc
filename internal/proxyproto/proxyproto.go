// Package proxyproto strips HAProxy PROXY preambles (v1 text, v2 binary)
// off the front of a request buffer and records the original peer addresses.
package proxyproto

import (
	"bytes"
	"encoding/binary"
	"net/netip"

	"github.com/indigo-web/utils/uf"
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/internal/strutil"
)

// Command and Family are deliberately distinct types: in the raw protocol
// the v1 TCP6 token and the v2 PROXY command share the 0x21 value, and only
// context tells them apart.
type (
	Command uint8
	Family  uint8
)

const (
	Local Command = 0x20
	Proxy Command = 0x21
)

const (
	Unspec Family = 0x00
	TCP4   Family = 0x11
	TCP6   Family = 0x21
)

type Info struct {
	// Present is set whenever a preamble was recognized and consumed.
	Present bool
	Family  Family
	Source  netip.AddrPort
	Dest    netip.AddrPort
}

const (
	// a v1 line is at most 107 bytes plus CRLF
	v1MaxLine = 108

	v2SignatureLength = 12
	v2HeaderLength    = 16
	// the v2 address block must fit the largest well-known layout
	v2MaxAddrLength = 16 + 16 + 2 + 2
)

var v2Signature = []byte("\x0d\x0a\x0d\x0a\x00\x0d\x0a\x51\x55\x49\x54\x0a")

// Decode inspects the front of buf. If no preamble is present, it returns a
// zero Info and consumed == 0 without error; a recognized but malformed
// preamble fails the whole request.
func Decode(buf []byte) (Info, int, error) {
	if len(buf) >= 4 && string(buf[:4]) == "PROX" {
		return decodeV1(buf)
	}
	if len(buf) >= v2SignatureLength && bytes.Equal(buf[:v2SignatureLength], v2Signature) {
		return decodeV2(buf)
	}

	return Info{}, 0, nil
}

func decodeV1(buf []byte) (Info, int, error) {
	line := buf
	if len(line) > v1MaxLine {
		line = line[:v1MaxLine]
	}

	end := bytes.IndexByte(line, '\r')
	if end == -1 || end+1 >= len(buf) || buf[end+1] != '\n' {
		return Info{}, 0, status.ErrBadRequest
	}
	consumed := end + 2

	fields := bytes.Split(buf[:end], []byte(" "))
	if len(fields) != 6 || string(fields[0]) != "PROXY" {
		return Info{}, 0, status.ErrBadRequest
	}

	var family Family
	switch string(fields[1]) {
	case "TCP4":
		family = TCP4
	case "TCP6":
		family = TCP6
	default:
		return Info{}, 0, status.ErrBadRequest
	}

	src, err := parseAddr(uf.B2S(fields[2]), family)
	if err != nil {
		return Info{}, 0, status.ErrBadRequest
	}
	dst, err := parseAddr(uf.B2S(fields[3]), family)
	if err != nil {
		return Info{}, 0, status.ErrBadRequest
	}

	srcPort, ok := strutil.ParsePort(uf.B2S(fields[4]))
	if !ok {
		return Info{}, 0, status.ErrBadRequest
	}
	dstPort, ok := strutil.ParsePort(uf.B2S(fields[5]))
	if !ok {
		return Info{}, 0, status.ErrBadRequest
	}

	info := Info{
		Present: true,
		Family:  family,
		Source:  netip.AddrPortFrom(src, srcPort),
		Dest:    netip.AddrPortFrom(dst, dstPort),
	}

	return info, consumed, nil
}

func parseAddr(str string, family Family) (netip.Addr, error) {
	addr, err := netip.ParseAddr(str)
	if err != nil {
		return netip.Addr{}, err
	}

	if (family == TCP4) != addr.Is4() {
		return netip.Addr{}, status.ErrBadRequest
	}

	return addr, nil
}

func decodeV2(buf []byte) (Info, int, error) {
	if len(buf) < v2HeaderLength {
		return Info{}, 0, status.ErrBadRequest
	}

	cmd := Command(buf[v2SignatureLength])
	family := Family(buf[v2SignatureLength+1])
	addrLen := int(binary.BigEndian.Uint16(buf[v2SignatureLength+2 : v2HeaderLength]))

	if addrLen > v2MaxAddrLength || len(buf) < v2HeaderLength+addrLen {
		return Info{}, 0, status.ErrBadRequest
	}
	consumed := v2HeaderLength + addrLen
	addr := buf[v2HeaderLength:consumed]

	switch cmd {
	case Local:
		// LOCAL preambles carry health checks from the proxy itself; the
		// address block, if any, is skipped over.
		return Info{Present: true, Family: Unspec}, consumed, nil
	case Proxy:
	default:
		return Info{}, 0, status.ErrBadRequest
	}

	info := Info{Present: true, Family: family}

	switch family {
	case TCP4:
		if addrLen < 12 {
			return Info{}, 0, status.ErrBadRequest
		}

		info.Source = netip.AddrPortFrom(
			netip.AddrFrom4([4]byte(addr[0:4])),
			binary.BigEndian.Uint16(addr[8:10]),
		)
		info.Dest = netip.AddrPortFrom(
			netip.AddrFrom4([4]byte(addr[4:8])),
			binary.BigEndian.Uint16(addr[10:12]),
		)
	case TCP6:
		if addrLen < 36 {
			return Info{}, 0, status.ErrBadRequest
		}

		info.Source = netip.AddrPortFrom(
			netip.AddrFrom16([16]byte(addr[0:16])),
			binary.BigEndian.Uint16(addr[32:34]),
		)
		info.Dest = netip.AddrPortFrom(
			netip.AddrFrom16([16]byte(addr[16:32])),
			binary.BigEndian.Uint16(addr[34:36]),
		)
	default:
		return Info{}, 0, status.ErrBadRequest
	}

	return info, consumed, nil
}
