package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"textwire/common"
)

// Gateway exposes the transformation service to WebSocket clients and
// serves the status endpoint. One binary message carries one encoded
// request frame; the reply is one binary message carrying the encoded
// response. The semantics match the TCP listener exactly: same codec,
// same dispatch, one exchange per connection.
type Gateway struct {
	srv      *Server
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewGateway creates a gateway backed by srv.
func NewGateway(srv *Server) *Gateway {
	g := &Gateway{
		srv: srv,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  common.MaxTextLen,
			WriteBufferSize: common.MaxTextLen,
			// The gateway is as open as the TCP listener; no origin policy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWS)
	mux.HandleFunc("/status", g.handleStatus)
	g.httpSrv = &http.Server{Handler: mux}
	return g
}

// Serve runs the gateway's HTTP server on ln until Close.
func (g *Gateway) Serve(ln net.Listener) error {
	log.Printf("gateway listening on %s", ln.Addr())
	return g.httpSrv.Serve(ln)
}

// Close shuts the gateway down and hangs up its connections.
func (g *Gateway) Close() error {
	return g.httpSrv.Close()
}

// handleWS services one WebSocket exchange. Anything that is not a
// single well-formed binary request gets the same treatment a bad TCP
// peer gets: the connection closes without a reply.
func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.New().String()

	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		g.srv.drop()
		log.Printf("[%s] gateway read: %v", id, err)
		return
	}
	if msgType != websocket.BinaryMessage {
		g.srv.drop()
		log.Printf("[%s] gateway dropping non-binary message", id)
		return
	}

	action, text, err := common.DecodeRequest(bytes.NewReader(payload))
	if err != nil {
		g.srv.drop()
		log.Printf("[%s] gateway dropping connection: %v", id, err)
		return
	}

	reply, err := g.srv.dispatch(action, text)
	if err != nil {
		g.srv.drop()
		log.Printf("[%s] gateway dropping connection: %v", id, err)
		return
	}

	frame, err := common.EncodeResponse(reply)
	if err != nil {
		g.srv.drop()
		log.Printf("[%s] gateway dropping connection: %v", id, err)
		return
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		log.Printf("[%s] gateway write: %v", id, err)
		return
	}

	g.srv.count(action)
	log.Printf("[%s] gateway %s done, %d bytes in, %d bytes out", id, action, len(text), len(reply))
}

// handleStatus reports the server counters as JSON.
func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g.srv.Snapshot())
}
