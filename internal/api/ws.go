package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/binding"
)

const (
	sendBuffer     = 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// BindKey identifies a binding stream in the hub.
func BindKey(path, property string) string {
	return path + "#" + property
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.opts.CORSOrigin
		},
	}
}

// serveBind streams one field as {"value","defined"} messages and applies
// {"set": value} messages from the client.
func (s *Server) serveBind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path, property := q.Get("path"), q.Get("property")

	field, err := s.editor.Bind(path, property)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("path", path), zap.Error(err))
		return
	}

	client := newClient(BindKey(path, property), conn)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	cancel := field.Subscribe(func(v binding.Value) {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		if !client.queue(data) {
			s.log.Debug("dropping slow client", zap.Stringer("client", client.ID))
		}
	})

	go s.writePump(client)
	s.readPump(client, field)

	cancel()
	s.hub.Unregister(client)
}

type wsMessage struct {
	Set json.RawMessage `json:"set"`
}

func (s *Server) readPump(c *Client, field *binding.Field) {
	defer c.Conn.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read error", zap.Stringer("client", c.ID), zap.Error(err))
			}
			return
		}

		if err := s.applyMessage(field, data); err != nil {
			body, _ := json.Marshal(errorBody{Error: err.Error()})
			c.queue(body)
		}
	}
}

func (s *Server) applyMessage(field *binding.Field, data []byte) error {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	if msg.Set == nil {
		return errors.New(`expected {"set": <value>}`)
	}
	value, err := decodeValue(msg.Set)
	if err != nil {
		return err
	}
	return field.Set(value)
}

func (s *Server) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
