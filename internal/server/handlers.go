package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"frella/internal/events"
	"frella/internal/metrics"
	"frella/internal/registry"

	"github.com/coder/websocket"
)

// maxMessageSize bounds one inbound frame. Board snapshots and canvas
// drawings are sent whole, so this sits well above the library default.
const maxMessageSize = 8 << 20

type presencePayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username,omitempty"`
}

// bearerToken reads the credential from the token query parameter or the
// Authorization header. Browsers cannot set headers on a websocket upgrade.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	identity, err := s.Verifier.Verify(bearerToken(r))
	if err != nil {
		log.Printf("[WS] Rejected connection from %s: %v\n", r.RemoteAddr, err)
		http.Error(w, "Authentication error", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.Config.OriginPatterns(),
	})
	if err != nil {
		log.Printf("[WS] Accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := registry.NewClient(identity.UserID, identity.Username, conn)
	go client.WritePump(ctx)

	s.connect(client)
	defer s.disconnect(client)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Printf("[WS] Read error for %s: %v\n", client.ID(), err)
			}
			return
		}
		var frame events.Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			client.Emit(events.Error, events.ErrorPayload{Message: "Invalid payload"})
			continue
		}
		s.dispatch(ctx, client, frame)
	}
}

func (s *Server) connect(c *registry.Client) {
	if prev := s.Registry.Register(c); prev != nil {
		log.Printf("[WS] %s reconnected, replacing %s with %s\n", c.Username(), prev.ID(), c.ID())
	} else {
		log.Printf("[WS] %s connected (%s)\n", c.Username(), c.ID())
	}
	if s.users != nil {
		s.users.AddUser(c.UserID(), c.Username())
	}
	s.Metrics.ConnectionOpened()
	s.Registry.Broadcast(events.UserOnline, presencePayload{UserID: c.UserID(), Username: c.Username()})
}

// disconnect runs every room's cleanup for c, then takes the user offline
// unless a newer connection already replaced c.
func (s *Server) disconnect(c *registry.Client) {
	s.Board.Disconnect(c)
	if room := c.SetGameRoom(""); room != "" {
		s.Games.Leave(c, room)
	}
	s.Rooms.LeaveAll(c)

	offline := s.Registry.Unregister(c)
	s.Metrics.ConnectionClosed()
	log.Printf("[WS] %s disconnected (%s)\n", c.Username(), c.ID())
	if offline {
		s.Registry.Broadcast(events.UserOffline, presencePayload{UserID: c.UserID()})
	}
}

// dispatch handles one inbound frame. A failure is reported to c alone and
// never closes the connection.
func (s *Server) dispatch(ctx context.Context, c *registry.Client, frame events.Frame) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WS] Panic handling %s from %s: %v\n", frame.Event, c.ID(), r)
			c.Emit(events.Error, events.ErrorPayload{Message: "Internal error"})
		}
	}()

	err := s.handle(ctx, c, frame)
	if errors.Is(err, errUnsupported) {
		s.Metrics.Event(metrics.UnsupportedEvent)
	} else {
		s.Metrics.Event(frame.Event)
	}
	if err == nil {
		return
	}
	var perr *events.PersistenceError
	if errors.As(err, &perr) {
		log.Printf("[Chat] %s failed for user %d: %v\n", frame.Event, c.UserID(), err)
	}
	c.Emit(events.Error, events.ErrorPayload{Message: events.ClientMessage(err)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status := "ok"
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.Ping(ctx); err != nil {
			status = "db_error"
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":%q,"error":%q}`, status, err.Error())
			return
		}
	}
	users, conns := s.Registry.Count()
	fmt.Fprintf(w, `{"status":%q,"users":%d,"connections":%d}`, status, users, conns)
}
