// Package observer serves the spectator/controller websocket. A client
// subscribes, receives a steady stream of frames, and may submit commands
// that the engine applies on its own loop.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tigercity/internal/protocol"
	"tigercity/internal/sim/engine"
)

type Server struct {
	engine *engine.Engine
	log    *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(e *engine.Engine, logger *log.Logger) *Server {
	return &Server{
		engine: e,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		out := make(chan []byte, 64)
		if !s.engine.Join(sid, out) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"),
				time.Now().Add(time.Second))
			return
		}
		defer s.engine.Leave(sid)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine: frames out.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b, ok := <-out:
					if !ok {
						writeErr <- nil
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: commands in.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var cmd protocol.Command
			if err := json.Unmarshal(msg, &cmd); err != nil {
				s.log.Printf("%s: bad command: %v", sid, err)
				continue
			}
			if cmd.Type == "" {
				continue
			}
			if !s.engine.Submit(cmd) {
				// Queue full; the client may resend.
				s.log.Printf("%s: command queue full, dropped %s", sid, cmd.Type)
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
