package events

// Presence.
const (
	UserOnline  = "user_online"
	UserOffline = "user_offline"
	Error       = "error"
)

// Chat.
const (
	JoinChat       = "join_chat"
	SendMessage    = "send_message"
	NewMessage     = "new_message"
	Typing         = "typing"
	StopTyping     = "stop_typing"
	UserTyping     = "user_typing"
	UserStopTyping = "user_stop_typing"
	MarkRead       = "mark_read"
	MessagesRead   = "messages_read"
)

// Board.
const (
	JoinBoard             = "join_board"
	LeaveBoard            = "leave_board"
	BoardUserJoined       = "board_user_joined"
	BoardUsers            = "board_users"
	BoardUserLeft         = "board_user_left"
	BoardChanges          = "board_changes"
	BoardCursor           = "board_cursor"
	RequestBoardSnapshot  = "request_board_snapshot"
	SnapshotRequested     = "snapshot_requested"
	ProvideBoardSnapshot  = "provide_board_snapshot"
	BoardSnapshotReceived = "board_snapshot_received"
)

// Guess My Thing.
const (
	JoinGame             = "join_guessmything"
	LeaveGame            = "leave_guessmything"
	StartGame            = "start-game"
	FinishPhaseEarly     = "finish-phase-early"
	DrawingUpdate        = "drawing-update"
	SubmitGuess          = "submit-guess"
	ReadyToPlayAgain     = "ready-to-play-again"
	PlayerJoined         = "player-joined"
	OpponentConnected    = "opponent-connected"
	GameStarted          = "game-started"
	TimerUpdate          = "timer-update"
	PhaseChanged         = "phase-changed"
	PlayerReady          = "player-ready"
	PlayerReadyRematch   = "player-ready-rematch"
	DrawingUpdated       = "drawing-updated"
	OpponentDrawing      = "opponent-drawing"
	GuessResult          = "guess-result"
	PlayerLeft           = "player-left"
	OpponentDisconnected = "opponent-disconnected"
)

// Persistence operations named in PersistenceError.Op.
const (
	OpSendMessage = "create message"
	OpMarkRead    = "mark messages read"
)
