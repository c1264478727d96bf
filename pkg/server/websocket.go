package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/patch"
)

// ack answers one transaction frame.
type ack struct {
	// Seq is the frame's position on this connection, starting at 1.
	Seq   uint64 `json:"seq"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// HandleWebSocket upgrades the request and streams transactions. Each text
// frame carries one JSON transaction and is answered with an ack; delegated
// events are pushed as they fire.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	if s.config.MaxMessageBytes > 0 {
		conn.SetReadLimit(s.config.MaxMessageBytes)
	}

	c := s.hub.register()
	s.logger.Info("client connected", "client", c.id, "remote", r.RemoteAddr)

	go s.writeLoop(conn, c)
	s.readLoop(conn, c)

	s.hub.unregister(c)
	s.logger.Info("client disconnected", "client", c.id)
}

// readLoop applies transaction frames until the connection fails.
func (s *Server) readLoop(conn *websocket.Conn, c *client) {
	conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	})

	var seq uint64
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "client", c.id, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
		if typ != websocket.TextMessage {
			continue
		}

		seq++
		a := ack{Seq: seq, OK: true}
		if err := s.applyFrame(msg); err != nil {
			a.OK = false
			a.Error = err.Error()
			a.Code = errors.Code(err)
		}
		data, _ := json.Marshal(a)
		if !s.hub.send(c, data) {
			return
		}
	}
}

func (s *Server) applyFrame(msg []byte) error {
	tx, err := patch.DecodeTransaction(bytes.NewReader(msg))
	if err != nil {
		return err
	}
	_, err = s.runner.Apply(s.ctx, tx)
	return err
}

// writeLoop drains the client's queue and keeps the connection alive with
// pings. It owns every write on conn.
func (s *Server) writeLoop(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(s.config.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		conn.Close()
		for range c.send {
		}
	}()

	for {
		select {
		case msg, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("write failed", "client", c.id, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
