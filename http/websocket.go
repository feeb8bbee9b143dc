package http

import (
	"crypto/sha1"
	"encoding/base64"

	"github.com/indigo-web/utils/uf"
	"github.com/lumen-web/lumen/http/proto"
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/internal/render"
	"github.com/lumen-web/lumen/kv"
)

// websocketMagic is the fixed GUID every conforming server concatenates
// with the client key, per RFC 6455 §1.3.
const websocketMagic = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// UpgradeToWebSocket performs the server side of the WebSocket handshake:
// it validates the upgrade headers, writes the 101 response and switches
// the connection out of HTTP mode. After a successful upgrade the handler
// owns the connection via Hijack; the serve loop won't frame it anymore.
func (r *Request) UpgradeToWebSocket() error {
	if r.Conn.HeadersSent {
		return status.ErrBadRequest
	}
	if !r.Conn.Upgrade {
		return status.ErrBadRequest
	}

	upgrade, ok := r.Header("Upgrade")
	if !ok || upgrade != "websocket" {
		return status.ErrBadRequest
	}

	key, ok := r.Header("Sec-WebSocket-Key")
	if !ok {
		return status.ErrBadRequest
	}
	if _, err := base64.StdEncoding.DecodeString(key); err != nil {
		return status.ErrBadRequest
	}

	digest := sha1.Sum(uf.S2B(key + websocketMagic))
	accept := base64.StdEncoding.EncodeToString(digest[:])

	head := render.Head(nil, proto.HTTP11, status.SwitchingProtocols, "", []kv.Pair{
		{Key: "Sec-WebSocket-Accept", Value: accept},
		{Key: "Upgrade", Value: "websocket"},
		{Key: "Connection", Value: "Upgrade"},
	})

	if _, err := r.client.Write(head); err != nil {
		return status.ErrCloseConnection
	}

	r.Conn.HeadersSent = true
	r.Conn.WebSocket = true
	r.Conn.KeepAlive = false

	return nil
}
