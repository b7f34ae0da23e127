// Package board relays collaborative drawing-board traffic between the
// members of a per-board room.
//
// Change sets and snapshots are opaque. The server does not order, merge or
// inspect them: whatever a client broadcasts last is what peers apply last.
package board

import (
	"encoding/json"
	"strings"

	"frella/internal/events"
)

// RoomName is the room manager key for a board.
func RoomName(boardID string) string {
	return "board:" + boardID
}

// Conn is a connection that remembers which board it is on.
type Conn interface {
	events.Conn
	BoardID() string
	SetBoardID(id string) string
}

// Rooms is the part of the room manager the board session needs.
type Rooms interface {
	Join(conn events.Conn, name string)
	Leave(conn events.Conn, name string) bool
	Broadcast(name, event string, data any, except events.Conn)
	Members(name string) []events.Conn
	IsMember(conn events.Conn, name string) bool
}

// Directory resolves a user to their live connection.
type Directory interface {
	Lookup(userID int64) (events.Conn, bool)
}

type Session struct {
	rooms Rooms
	users Directory
}

func NewSession(rooms Rooms, users Directory) *Session {
	return &Session{rooms: rooms, users: users}
}

type userRef struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

type presencePayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username,omitempty"`
	SocketID string `json:"socketId"`
}

type usersPayload struct {
	Users []userRef `json:"users"`
}

type changesPayload struct {
	UserID   int64           `json:"userId"`
	Username string          `json:"username"`
	SocketID string          `json:"socketId"`
	Changes  json.RawMessage `json:"changes"`
}

type cursorPayload struct {
	UserID   int64    `json:"userId"`
	Username string   `json:"username"`
	SocketID string   `json:"socketId"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
}

type snapshotRequest struct {
	RequesterID int64 `json:"requesterId"`
}

type snapshotPayload struct {
	Snapshot   json.RawMessage `json:"snapshot"`
	ProviderID int64           `json:"providerId"`
}

// Join moves conn onto boardID, leaving the board it was on before.
func (s *Session) Join(conn Conn, boardID string) error {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return events.Invalid("Board ID is required")
	}

	if prev := conn.BoardID(); prev != "" && prev != boardID {
		s.leaveRoom(conn, prev)
	}
	conn.SetBoardID(boardID)

	room := RoomName(boardID)
	s.rooms.Join(conn, room)
	s.rooms.Broadcast(room, events.BoardUserJoined, presencePayload{
		UserID:   conn.UserID(),
		Username: conn.Username(),
		SocketID: conn.ID(),
	}, conn)

	others := []userRef{}
	for _, m := range s.rooms.Members(room) {
		if m.UserID() == conn.UserID() {
			continue
		}
		others = append(others, userRef{UserID: m.UserID(), Username: m.Username()})
	}
	conn.Emit(events.BoardUsers, usersPayload{Users: others})
	return nil
}

// Leave takes conn off boardID and tells the remaining members.
func (s *Session) Leave(conn Conn, boardID string) error {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return events.Invalid("Board ID is required")
	}
	s.leaveRoom(conn, boardID)
	if conn.BoardID() == boardID {
		conn.SetBoardID("")
	}
	return nil
}

// Disconnect removes conn from whatever board it last joined.
func (s *Session) Disconnect(conn Conn) {
	if boardID := conn.SetBoardID(""); boardID != "" {
		s.leaveRoom(conn, boardID)
	}
}

func (s *Session) leaveRoom(conn Conn, boardID string) {
	room := RoomName(boardID)
	if !s.rooms.Leave(conn, room) {
		return
	}
	s.rooms.Broadcast(room, events.BoardUserLeft, presencePayload{
		UserID:   conn.UserID(),
		SocketID: conn.ID(),
	}, nil)
}

// member reports whether conn may send traffic into boardID.
func (s *Session) member(conn Conn, boardID string) bool {
	return boardID != "" && s.rooms.IsMember(conn, RoomName(boardID))
}

// RelayChanges forwards an opaque change set to the other members. Input with
// a missing board id or change set, or from a non-member, is dropped.
func (s *Session) RelayChanges(conn Conn, boardID string, changes json.RawMessage) {
	if !s.member(conn, boardID) || isEmpty(changes) {
		return
	}
	s.rooms.Broadcast(RoomName(boardID), events.BoardChanges, changesPayload{
		UserID:   conn.UserID(),
		Username: conn.Username(),
		SocketID: conn.ID(),
		Changes:  changes,
	}, conn)
}

// RelayCursor forwards a pointer position to the other members.
func (s *Session) RelayCursor(conn Conn, boardID string, x, y *float64) {
	if !s.member(conn, boardID) {
		return
	}
	s.rooms.Broadcast(RoomName(boardID), events.BoardCursor, cursorPayload{
		UserID:   conn.UserID(),
		Username: conn.Username(),
		SocketID: conn.ID(),
		X:        x,
		Y:        y,
	}, conn)
}

// RequestSnapshot asks the other members for a full copy of the board.
func (s *Session) RequestSnapshot(conn Conn, boardID string) {
	if !s.member(conn, boardID) {
		return
	}
	s.rooms.Broadcast(RoomName(boardID), events.SnapshotRequested, snapshotRequest{RequesterID: conn.UserID()}, conn)
}

// ProvideSnapshot delivers a snapshot to the requester's current connection only.
// The reply is dropped if the requester is no longer online or the provider is
// not on the board.
func (s *Session) ProvideSnapshot(conn Conn, boardID string, snapshot json.RawMessage, requesterID int64) {
	if !s.member(conn, boardID) || isEmpty(snapshot) || requesterID == 0 {
		return
	}
	target, ok := s.users.Lookup(requesterID)
	if !ok {
		return
	}
	target.Emit(events.BoardSnapshotReceived, snapshotPayload{Snapshot: snapshot, ProviderID: conn.UserID()})
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null" || trimmed == "false"
}
