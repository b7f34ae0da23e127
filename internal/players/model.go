package players

import "frella/internal/events"

// Player is a seat in a game room.
type Player struct {
	ID    int64       `json:"id"`
	Name  string      `json:"username"`
	Conn  events.Conn `json:"-"`
	Score int         `json:"score"`
	Ready bool        `json:"ready"`
}
