package guessgame

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"frella/internal/events"
	"frella/internal/players"
)

type playerRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type joinedPayload struct {
	PlayerCount int         `json:"playerCount"`
	CanStart    bool        `json:"canStart"`
	Players     []playerRef `json:"players"`
}

type leftPayload struct {
	PlayerCount int  `json:"playerCount"`
	CanStart    bool `json:"canStart"`
}

type startedPayload struct {
	Word     string `json:"word"`
	Phase    Phase  `json:"phase"`
	TimeLeft int    `json:"timeLeft"`
}

type phasePayload struct {
	Phase    Phase `json:"phase"`
	TimeLeft int   `json:"timeLeft"`
}

type timerPayload struct {
	TimeLeft int `json:"timeLeft"`
}

type readyPayload struct {
	PlayerID     int64 `json:"playerId"`
	ReadyCount   int   `json:"readyCount"`
	TotalPlayers int   `json:"totalPlayers"`
}

type guessPayload struct {
	Correct bool   `json:"correct"`
	Guess   string `json:"guess"`
	Winner  *int64 `json:"winner"`
	Word    string `json:"word,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// timer is the single cancellable handle a session holds, either the phase
// countdown or the result one-shot.
type timer struct {
	stop func()
}

// Session is one game room. Every mutation, timer callbacks included, runs
// under mu.
type Session struct {
	id    string
	cfg   Config
	hooks Hooks
	intn  func(int) int

	mu       sync.Mutex
	phase    Phase
	timeLeft int
	players  *players.Store
	words    map[int64]string
	drawings map[int64]json.RawMessage
	guesses  map[int64][]string
	timer    *timer
	gen      uint64
	stats    TimerStats
}

func NewSession(id string, cfg Config, hooks Hooks) *Session {
	return &Session{
		id:       id,
		cfg:      cfg,
		hooks:    hooks,
		intn:     rand.Intn,
		phase:    PhaseWaiting,
		players:  players.NewStore(),
		words:    make(map[int64]string),
		drawings: make(map[int64]json.RawMessage),
		guesses:  make(map[int64][]string),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) TimeLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLeft
}

func (s *Session) Count() int {
	return s.players.Count()
}

// Players returns the seated players in join order.
func (s *Session) Players() []players.Player {
	list := s.players.GetList()
	out := make([]players.Player, 0, len(list))
	for _, p := range list {
		out = append(out, *p)
	}
	return out
}

func (s *Session) TimerStats() TimerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	if s.timer != nil {
		stats.Live = 1
	}
	return stats
}

// Join seats conn's user. A user already seated gets the new connection and
// keeps their score.
func (s *Session) Join(conn events.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.players.Has(conn.UserID()) && s.players.Count() >= Capacity {
		return events.Invalid("Game is full")
	}
	s.players.Add(conn.UserID(), conn.Username(), conn)
	log.Printf("[Game] %s joined room %s\n", conn.Username(), s.id)

	count := s.players.Count()
	refs := make([]playerRef, 0, count)
	for _, p := range s.players.GetList() {
		refs = append(refs, playerRef{ID: p.ID, Username: p.Name})
	}
	s.broadcastLocked(events.PlayerJoined, joinedPayload{
		PlayerCount: count,
		CanStart:    count == Capacity,
		Players:     refs,
	}, nil)
	if count == Capacity {
		s.broadcastLocked(events.OpponentConnected, nil, nil)
	}
	return nil
}

// Leave unseats conn's user and reports whether they were seated on this
// connection. Fewer than two players always resets the room to waiting.
func (s *Session) Leave(conn events.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players.Get(conn.UserID())
	if p == nil || p.Conn.ID() != conn.ID() {
		return false
	}
	s.players.Remove(p.ID)
	delete(s.words, p.ID)
	delete(s.drawings, p.ID)
	delete(s.guesses, p.ID)
	log.Printf("[Game] %s left room %s\n", conn.Username(), s.id)

	count := s.players.Count()
	if count < Capacity {
		s.players.ResetReady()
		if s.phase != PhaseWaiting || s.timer != nil {
			s.toWaitingLocked()
		}
	}
	s.broadcastLocked(events.PlayerLeft, leftPayload{PlayerCount: count, CanStart: count == Capacity}, nil)
	s.broadcastLocked(events.OpponentDisconnected, nil, nil)
	return true
}

// Start begins a match from waiting.
func (s *Session) Start(conn events.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.players.Has(conn.UserID()) {
		return events.Invalid("Join the game first")
	}
	if s.phase != PhaseWaiting {
		return events.Invalid("Game already in progress")
	}
	if s.players.Count() != Capacity {
		return events.Invalid("Need 2 players to start")
	}
	s.startMatchLocked()
	return nil
}

// FinishEarly marks conn's user done with the current phase. The phase
// advances once every player is done.
func (s *Session) FinishEarly(conn events.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseWaiting {
		return
	}
	if !s.markReadyLocked(conn, events.PlayerReady) {
		return
	}
	log.Printf("[Game] All players ready in room %s, advancing from %s\n", s.id, s.phase)
	s.cancelTimerLocked()
	s.advanceLocked()
}

// ReadyAgain marks conn's user ready for a rematch. Once every player is
// ready the next match starts.
func (s *Session) ReadyAgain(conn events.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseWaiting && s.phase != PhaseResult {
		return
	}
	if !s.markReadyLocked(conn, events.PlayerReadyRematch) {
		return
	}
	log.Printf("[Game] Rematch in room %s\n", s.id)
	s.cancelTimerLocked()
	if s.phase == PhaseResult {
		s.toWaitingLocked()
	}
	s.startMatchLocked()
}

// UpdateDrawing records conn's drawing and relays it to the opponent. Only
// accepted while drawing.
func (s *Session) UpdateDrawing(conn events.Conn, drawing json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDrawing || !s.players.Has(conn.UserID()) || len(drawing) == 0 {
		return
	}
	s.drawings[conn.UserID()] = drawing
	s.broadcastLocked(events.DrawingUpdated, drawing, conn)
}

// SubmitGuess checks a guess against the opponent's word. A correct guess
// scores a point and ends the round.
func (s *Session) SubmitGuess(conn events.Conn, guess string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseGuessing || !s.players.Has(conn.UserID()) {
		return
	}
	guesser := conn.UserID()
	target := s.words[s.opponentLocked(guesser)]
	if target == "" {
		log.Printf("[Game] No target word for %s in room %s\n", conn.Username(), s.id)
		return
	}
	s.guesses[guesser] = append(s.guesses[guesser], guess)

	if !Matches(guess, target) {
		conn.Emit(events.GuessResult, guessPayload{
			Correct: false,
			Guess:   guess,
			Hint:    fmt.Sprintf("Not quite! (%s)", guess),
		})
		return
	}

	s.players.UpdateScore(guesser, 1)
	log.Printf("[Game] %s guessed %q in room %s\n", conn.Username(), target, s.id)
	s.broadcastLocked(events.GuessResult, guessPayload{
		Correct: true,
		Guess:   guess,
		Winner:  &guesser,
		Word:    target,
	}, nil)
	s.enterResultLocked()
}

// Close cancels any running timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
}

// markReadyLocked records a ready signal, announces progress under event and
// reports whether every player is now ready.
func (s *Session) markReadyLocked(conn events.Conn, event string) bool {
	if s.players.SetReady(conn.UserID(), true) == nil {
		return false
	}
	ready, total := s.players.ReadyCount(), s.players.Count()
	s.broadcastLocked(event, readyPayload{
		PlayerID:     conn.UserID(),
		ReadyCount:   ready,
		TotalPlayers: total,
	}, nil)
	return ready >= total && total >= Capacity
}

func (s *Session) startMatchLocked() {
	s.cancelTimerLocked()

	list := s.players.GetList()
	first, second := pickWords(s.intn)
	s.words = map[int64]string{list[0].ID: first, list[1].ID: second}
	s.drawings = make(map[int64]json.RawMessage)
	s.guesses = make(map[int64][]string)
	s.players.ResetReady()
	s.phase = PhaseThinking
	s.timeLeft = s.cfg.ThinkingSecs
	s.observePhaseLocked()

	for _, p := range list {
		p.Conn.Emit(events.GameStarted, startedPayload{
			Word:     s.words[p.ID],
			Phase:    s.phase,
			TimeLeft: s.timeLeft,
		})
	}
	s.startCountdownLocked()
}

// advanceLocked moves to the next phase. The caller has already stopped the
// previous timer.
func (s *Session) advanceLocked() {
	s.players.ResetReady()

	switch s.phase {
	case PhaseThinking:
		s.phase = PhaseDrawing
		s.timeLeft = s.cfg.DrawingSecs
		s.drawings = make(map[int64]json.RawMessage)
	case PhaseDrawing:
		s.phase = PhaseGuessing
		s.timeLeft = s.cfg.GuessingSecs
		s.guesses = make(map[int64][]string)
		s.deliverDrawingsLocked()
	case PhaseGuessing:
		s.enterResultLocked()
		return
	case PhaseResult:
		s.toWaitingLocked()
		return
	default:
		return
	}
	s.announceLocked()
	s.startCountdownLocked()
}

// deliverDrawingsLocked sends each player the drawing their opponent made.
// A player with no drawing leaves their opponent nothing to receive.
func (s *Session) deliverDrawingsLocked() {
	for _, p := range s.players.GetList() {
		drawing, ok := s.drawings[s.opponentLocked(p.ID)]
		if !ok {
			continue
		}
		p.Conn.Emit(events.OpponentDrawing, drawing)
	}
}

func (s *Session) enterResultLocked() {
	s.cancelTimerLocked()
	s.players.ResetReady()
	s.phase = PhaseResult
	s.timeLeft = s.cfg.ResultSecs
	s.announceLocked()
	s.scheduleResultLocked()
}

// toWaitingLocked ends the match and clears all per-match state. Scores are
// kept.
func (s *Session) toWaitingLocked() {
	s.cancelTimerLocked()
	s.players.ResetReady()
	s.phase = PhaseWaiting
	s.timeLeft = 0
	s.words = make(map[int64]string)
	s.drawings = make(map[int64]json.RawMessage)
	s.guesses = make(map[int64][]string)
	s.announceLocked()
}

func (s *Session) announceLocked() {
	s.observePhaseLocked()
	s.broadcastLocked(events.PhaseChanged, phasePayload{Phase: s.phase, TimeLeft: s.timeLeft}, nil)
}

func (s *Session) observePhaseLocked() {
	log.Printf("[Game] Room %s phase %s (%ds)\n", s.id, strings.ToUpper(string(s.phase)), s.timeLeft)
	if s.hooks.PhaseChanged != nil {
		s.hooks.PhaseChanged(s.phase)
	}
}

func (s *Session) opponentLocked(id int64) int64 {
	for _, p := range s.players.GetList() {
		if p.ID != id {
			return p.ID
		}
	}
	return 0
}

func (s *Session) broadcastLocked(event string, data any, except events.Conn) {
	for _, p := range s.players.GetList() {
		if except != nil && p.Conn.ID() == except.ID() {
			continue
		}
		p.Conn.Emit(event, data)
	}
}

// startCountdownLocked runs the per-second countdown for the current phase.
func (s *Session) startCountdownLocked() {
	s.cancelTimerLocked()
	gen := s.gen
	ticker := time.NewTicker(s.cfg.Tick)
	done := make(chan struct{})
	s.setTimerLocked(func() {
		ticker.Stop()
		close(done)
	})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !s.tick(gen) {
					return
				}
			}
		}
	}()
}

// tick handles one countdown step and reports whether the countdown goes on.
func (s *Session) tick(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}
	s.timeLeft--
	s.broadcastLocked(events.TimerUpdate, timerPayload{TimeLeft: s.timeLeft}, nil)
	if s.timeLeft > 0 {
		return true
	}
	s.releaseTimerLocked()
	s.advanceLocked()
	return false
}

// scheduleResultLocked arms the one-shot that takes result back to waiting.
func (s *Session) scheduleResultLocked() {
	s.cancelTimerLocked()
	gen := s.gen
	t := time.AfterFunc(s.cfg.ResultDelay, func() {
		s.resultElapsed(gen)
	})
	s.setTimerLocked(func() { t.Stop() })
}

func (s *Session) resultElapsed(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.phase != PhaseResult {
		return
	}
	s.releaseTimerLocked()
	s.toWaitingLocked()
}

func (s *Session) setTimerLocked(stop func()) {
	s.timer = &timer{stop: stop}
	s.stats.Started++
	if s.hooks.TimerStarted != nil {
		s.hooks.TimerStarted()
	}
}

// cancelTimerLocked stops the live timer, if any. Bumping gen turns any tick
// already waiting on mu into a no-op.
func (s *Session) cancelTimerLocked() {
	s.gen++
	if s.timer == nil {
		return
	}
	s.timer.stop()
	s.timer = nil
	s.stats.Cancelled++
	if s.hooks.TimerStopped != nil {
		s.hooks.TimerStopped()
	}
}

// releaseTimerLocked drops a timer that ran to completion.
func (s *Session) releaseTimerLocked() {
	s.gen++
	if s.timer == nil {
		return
	}
	s.timer.stop()
	s.timer = nil
	s.stats.Fired++
	if s.hooks.TimerStopped != nil {
		s.hooks.TimerStopped()
	}
}
