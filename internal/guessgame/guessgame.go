// Package guessgame runs Guess My Thing, a two-player drawing and guessing
// game. Each room is a Session that cycles
//
//	waiting → thinking → drawing → guessing → result → waiting
//
// driven by a one-second countdown or by every player signalling ready.
package guessgame

import "time"

type Phase string

const (
	PhaseWaiting  = Phase("waiting")
	PhaseThinking = Phase("thinking")
	PhaseDrawing  = Phase("drawing")
	PhaseGuessing = Phase("guessing")
	PhaseResult   = Phase("result")
)

// Capacity is the number of seats in a room.
const Capacity = 2

type Config struct {
	Tick         time.Duration
	ThinkingSecs int
	DrawingSecs  int
	GuessingSecs int
	ResultSecs   int
	ResultDelay  time.Duration // result → waiting
}

func DefaultConfig() Config {
	return Config{
		Tick:         time.Second,
		ThinkingSecs: 10,
		DrawingSecs:  60,
		GuessingSecs: 60,
		ResultSecs:   5,
		ResultDelay:  3 * time.Second,
	}
}

// Hooks observe a session. Any field may be nil.
type Hooks struct {
	PhaseChanged func(Phase)
	TimerStarted func()
	TimerStopped func()
}

// TimerStats counts timer handles over a session's lifetime. Live is 0 or 1.
type TimerStats struct {
	Started   int
	Cancelled int
	Fired     int
	Live      int
}
