package dummy

import (
	"io"
	"net"

	"github.com/lumen-web/lumen/transport"
)

var _ transport.Client = new(Client)

// Client is a scripted in-memory transport.Client: every Read returns the
// next pre-loaded chunk, then io.EOF. Written data is retained for
// inspection.
type Client struct {
	chunks  [][]byte
	pending []byte
	pointer int
	written []byte
	closed  bool
}

func NewClient(chunks ...[]byte) *Client {
	return &Client{
		chunks: chunks,
	}
}

func (c *Client) Read() ([]byte, error) {
	if c.closed {
		return nil, io.EOF
	}

	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	if c.pointer >= len(c.chunks) {
		return nil, io.EOF
	}

	chunk := c.chunks[c.pointer]
	c.pointer++

	return chunk, nil
}

func (c *Client) Pushback(b []byte) {
	c.pending = b
}

func (c *Client) Write(b []byte) (int, error) {
	c.written = append(c.written, b...)
	return len(b), nil
}

// Written returns everything the server side has sent so far.
func (c *Client) Written() []byte {
	return c.written
}

func (c *Client) Conn() net.Conn {
	return nil
}

func (c *Client) Remote() net.Addr {
	return nil
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}
