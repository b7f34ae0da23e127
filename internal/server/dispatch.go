package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"frella/internal/chat"
	"frella/internal/events"
	"frella/internal/guessgame"
	"frella/internal/registry"
)

// flexID accepts an id sent either as a JSON string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type boardRef struct {
	BoardID flexID `json:"boardId"`
}

type boardChanges struct {
	BoardID flexID          `json:"boardId"`
	Changes json.RawMessage `json:"changes"`
}

type boardCursor struct {
	BoardID flexID   `json:"boardId"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
}

type boardSnapshot struct {
	BoardID     flexID          `json:"boardId"`
	Snapshot    json.RawMessage `json:"snapshot"`
	RequesterID flexID          `json:"requesterId"`
}

type gameJoin struct {
	RoomID string `json:"roomId"`
}

type guessInput struct {
	Guess string `json:"guess"`
}

var (
	errInvalidPayload = events.Invalid("Invalid payload")
	errUnsupported    = events.Invalid("Unsupported event")
)

// decode unmarshals an optional payload. Absent data leaves v at its zero value.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

// decodeMessageIDs accepts a bare array of ids or {"messageIds": [...]}.
func decodeMessageIDs(data json.RawMessage) ([]int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var ids []flexID
		if err := json.Unmarshal(data, &ids); err != nil {
			return nil, errInvalidPayload
		}
		return parseIDs(ids)
	}
	var wrapped struct {
		MessageIDs []flexID `json:"messageIds"`
	}
	if err := decode(data, &wrapped); err != nil {
		return nil, err
	}
	return parseIDs(wrapped.MessageIDs)
}

func parseIDs(raw []flexID) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(string(r), 10, 64)
		if err != nil {
			return nil, errInvalidPayload
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Server) game(c *registry.Client) (*guessgame.Session, bool) {
	room := c.GameRoom()
	if room == "" {
		return nil, false
	}
	return s.Games.Get(room)
}

func (s *Server) handle(ctx context.Context, c *registry.Client, frame events.Frame) error {
	switch frame.Event {
	// Chat
	case events.JoinChat:
		s.Chat.Join(c)
	case events.SendMessage:
		var in chat.SendInput
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		_, err := s.Chat.Send(ctx, c, in)
		return err
	case events.Typing:
		s.Chat.Typing(c)
	case events.StopTyping:
		s.Chat.StopTyping(c)
	case events.MarkRead:
		ids, err := decodeMessageIDs(frame.Data)
		if err != nil {
			return err
		}
		return s.Chat.MarkRead(ctx, c, ids)

	// Board
	case events.JoinBoard:
		var in boardRef
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return s.Board.Join(c, string(in.BoardID))
	case events.LeaveBoard:
		var in boardRef
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return s.Board.Leave(c, string(in.BoardID))
	case events.BoardChanges:
		var in boardChanges
		if decode(frame.Data, &in) == nil {
			s.Board.RelayChanges(c, string(in.BoardID), in.Changes)
		}
	case events.BoardCursor:
		var in boardCursor
		if decode(frame.Data, &in) == nil {
			s.Board.RelayCursor(c, string(in.BoardID), in.X, in.Y)
		}
	case events.RequestBoardSnapshot:
		var in boardRef
		if decode(frame.Data, &in) == nil {
			s.Board.RequestSnapshot(c, string(in.BoardID))
		}
	case events.ProvideBoardSnapshot:
		var in boardSnapshot
		if decode(frame.Data, &in) != nil {
			break
		}
		if requester, err := strconv.ParseInt(string(in.RequesterID), 10, 64); err == nil {
			s.Board.ProvideSnapshot(c, string(in.BoardID), in.Snapshot, requester)
		}

	// Game
	case events.JoinGame:
		var in gameJoin
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		room := in.RoomID
		if room == "" {
			room = guessgame.DefaultRoom
		}
		if prev := c.GameRoom(); prev != "" && prev != room {
			s.Games.Leave(c, prev)
			c.SetGameRoom("")
		}
		session, err := s.Games.Join(c, room)
		if err != nil {
			return err
		}
		c.SetGameRoom(session.ID())
	case events.LeaveGame:
		if room := c.SetGameRoom(""); room != "" {
			s.Games.Leave(c, room)
		}
	case events.StartGame:
		session, ok := s.game(c)
		if !ok {
			return events.Invalid("Join the game first")
		}
		return session.Start(c)
	case events.FinishPhaseEarly:
		if session, ok := s.game(c); ok {
			session.FinishEarly(c)
		}
	case events.DrawingUpdate:
		if session, ok := s.game(c); ok {
			session.UpdateDrawing(c, frame.Data)
		}
	case events.SubmitGuess:
		var in guessInput
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		if session, ok := s.game(c); ok {
			session.SubmitGuess(c, in.Guess)
		}
	case events.ReadyToPlayAgain:
		if session, ok := s.game(c); ok {
			session.ReadyAgain(c)
		}

	default:
		return errUnsupported
	}
	return nil
}
