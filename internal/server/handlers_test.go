package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"frella/internal/auth"
	"frella/internal/chat"
	"frella/internal/config"
	"frella/internal/events"
	"frella/internal/metrics"
	"frella/internal/registry"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func testConfig() config.Config {
	return config.Config{
		Port:         "0",
		JWTSecret:    "test-secret",
		FrontendURL:  "http://localhost:3000",
		ThinkingSecs: 10,
		DrawingSecs:  60,
		GuessingSecs: 60,
		ResultSecs:   5,
		ResultDelay:  3 * time.Second,
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(testConfig(), chat.NewMemoryStore(), nil, metrics.New())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func issue(t *testing.T, srv *Server, id int64, name string) string {
	t.Helper()
	token, err := srv.Verifier.Issue(auth.Identity{UserID: id, Username: name}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func wsURL(ts *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + token
}

// dial connects as the given user and waits until the server has registered
// the connection.
func dial(t *testing.T, srv *Server, ts *httptest.Server, id int64, name string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, issue(t, srv, id, name)), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	conn.SetReadLimit(maxMessageSize)

	var online presencePayload
	readEvent(t, conn, events.UserOnline, &online)
	for online.UserID != id {
		readEvent(t, conn, events.UserOnline, &online)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := wsjson.Write(ctx, conn, events.Frame{Event: event, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

// readEvent skips frames until one named event arrives and decodes its data into v.
func readEvent(t *testing.T, conn *websocket.Conn, event string, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		var frame events.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if frame.Event != event {
			continue
		}
		if v != nil {
			if err := json.Unmarshal(frame.Data, v); err != nil {
				t.Fatalf("decode %s: %v", event, err)
			}
		}
		return
	}
}

// barrier returns once the server has handled everything conn sent before it.
// Frames from one connection are handled in order, so the reply to an
// unknown event marks the point.
func barrier(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	send(t, conn, "barrier", nil)
	var e events.ErrorPayload
	readEvent(t, conn, events.Error, &e)
	for e.Message != "Unsupported event" {
		readEvent(t, conn, events.Error, &e)
	}
}

func TestWS_RejectsBadToken(t *testing.T) {
	_, ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(ts, "not-a-token"), nil)
	if err == nil {
		t.Fatal("dial with a bad token should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}

func TestWS_RejectsMissingToken(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/ws")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestWS_Presence(t *testing.T) {
	srv, ts := newTestServer(t)
	alice := dial(t, srv, ts, 1, "Alice")
	bob := dial(t, srv, ts, 2, "Bob")

	var online presencePayload
	readEvent(t, alice, events.UserOnline, &online)
	if online.UserID != 2 || online.Username != "Bob" {
		t.Errorf("user_online = %+v", online)
	}
	if !srv.Registry.IsOnline(2) {
		t.Error("bob should be online")
	}

	bob.Close(websocket.StatusNormalClosure, "")

	var offline presencePayload
	readEvent(t, alice, events.UserOffline, &offline)
	if offline.UserID != 2 {
		t.Errorf("user_offline = %+v", offline)
	}
	if srv.Registry.IsOnline(2) {
		t.Error("bob should be offline")
	}
}

func TestWS_ReconnectKeepsUserOnline(t *testing.T) {
	srv, ts := newTestServer(t)
	watcher := dial(t, srv, ts, 9, "Watcher")
	first := dial(t, srv, ts, 1, "Alice")
	dial(t, srv, ts, 1, "Alice")

	first.Close(websocket.StatusNormalClosure, "")
	barrier(t, watcher)
	time.Sleep(50 * time.Millisecond)

	if !srv.Registry.IsOnline(1) {
		t.Error("closing a replaced connection must not take the user offline")
	}
}

func TestWS_ChatSend(t *testing.T) {
	srv, ts := newTestServer(t)
	alice := dial(t, srv, ts, 1, "Alice")
	bob := dial(t, srv, ts, 2, "Bob")
	send(t, alice, events.JoinChat, nil)
	send(t, bob, events.JoinChat, nil)
	barrier(t, alice)
	barrier(t, bob)

	send(t, alice, events.SendMessage, map[string]any{"content": "hello", "receiverId": 2})

	var msg chat.Message
	readEvent(t, bob, events.NewMessage, &msg)
	if msg.SenderID != 1 || msg.Sender.Username != "Alice" {
		t.Errorf("new_message sender = %+v", msg.Sender)
	}
	if msg.Content == nil || *msg.Content != "hello" {
		t.Errorf("content = %v, want hello", msg.Content)
	}
	if msg.Receiver == nil || msg.Receiver.Username != "Bob" {
		t.Errorf("receiver = %+v, want Bob", msg.Receiver)
	}

	send(t, bob, events.MarkRead, []int64{msg.ID})
	var read struct {
		MessageIDs []int64 `json:"messageIds"`
		ReadBy     int64   `json:"readBy"`
	}
	readEvent(t, alice, events.MessagesRead, &read)
	if read.ReadBy != 2 || len(read.MessageIDs) != 1 || read.MessageIDs[0] != msg.ID {
		t.Errorf("messages_read = %+v", read)
	}
}

func TestWS_ChatValidation(t *testing.T) {
	srv, ts := newTestServer(t)
	alice := dial(t, srv, ts, 1, "Alice")

	send(t, alice, events.SendMessage, map[string]any{"content": ""})

	var e events.ErrorPayload
	readEvent(t, alice, events.Error, &e)
	if e.Message != "Message content or image is required" {
		t.Errorf("error = %q", e.Message)
	}
}

func TestWS_UnsupportedAndInvalid(t *testing.T) {
	srv, ts := newTestServer(t)
	alice := dial(t, srv, ts, 1, "Alice")

	send(t, alice, "launch_rockets", nil)
	var e events.ErrorPayload
	readEvent(t, alice, events.Error, &e)
	if e.Message != "Unsupported event" {
		t.Errorf("error = %q, want Unsupported event", e.Message)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := alice.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	readEvent(t, alice, events.Error, &e)
	if e.Message != "Invalid payload" {
		t.Errorf("error = %q, want Invalid payload", e.Message)
	}

	// The connection survives both.
	barrier(t, alice)
}

func TestWS_BoardJoin(t *testing.T) {
	srv, ts := newTestServer(t)
	alice := dial(t, srv, ts, 1, "Alice")
	bob := dial(t, srv, ts, 2, "Bob")

	send(t, alice, events.JoinBoard, map[string]any{"boardId": 7})
	readEvent(t, alice, events.BoardUsers, nil)
	send(t, bob, events.JoinBoard, map[string]any{"boardId": "7"})

	var joined struct {
		UserID   int64  `json:"userId"`
		SocketID string `json:"socketId"`
	}
	readEvent(t, alice, events.BoardUserJoined, &joined)
	if joined.UserID != 2 || joined.SocketID == "" {
		t.Errorf("board_user_joined = %+v", joined)
	}

	var users struct {
		Users []struct {
			UserID int64 `json:"userId"`
		} `json:"users"`
	}
	readEvent(t, bob, events.BoardUsers, &users)
	if len(users.Users) != 1 || users.Users[0].UserID != 1 {
		t.Errorf("board_users = %+v", users)
	}

	send(t, bob, events.JoinBoard, map[string]any{})
	var e events.ErrorPayload
	readEvent(t, bob, events.Error, &e)
	if e.Message != "Board ID is required" {
		t.Errorf("error = %q", e.Message)
	}
}

func TestWS_LargeBoardFrames(t *testing.T) {
	srv, ts := newTestServer(t)
	alice := dial(t, srv, ts, 1, "Alice")
	bob := dial(t, srv, ts, 2, "Bob")
	send(t, alice, events.JoinBoard, map[string]any{"boardId": "7"})
	readEvent(t, alice, events.BoardUsers, nil)
	send(t, bob, events.JoinBoard, map[string]any{"boardId": "7"})
	readEvent(t, bob, events.BoardUsers, nil)

	// Both frames are larger than the websocket library's default read limit.
	blob := strings.Repeat("x", 40<<10)
	send(t, alice, events.BoardChanges, map[string]any{
		"boardId": "7",
		"changes": []any{map[string]string{"shape:1": blob}},
	})
	var changes struct {
		UserID  int64           `json:"userId"`
		Changes json.RawMessage `json:"changes"`
	}
	readEvent(t, bob, events.BoardChanges, &changes)
	if changes.UserID != 1 || len(changes.Changes) < len(blob) {
		t.Errorf("board_changes from %d carried %d bytes, want at least %d", changes.UserID, len(changes.Changes), len(blob))
	}
	barrier(t, alice)

	send(t, bob, events.RequestBoardSnapshot, map[string]any{"boardId": "7"})
	readEvent(t, alice, events.SnapshotRequested, nil)
	send(t, alice, events.ProvideBoardSnapshot, map[string]any{
		"boardId":     "7",
		"snapshot":    map[string]string{"store": blob},
		"requesterId": "2",
	})
	var snap struct {
		Snapshot   json.RawMessage `json:"snapshot"`
		ProviderID int64           `json:"providerId"`
	}
	readEvent(t, bob, events.BoardSnapshotReceived, &snap)
	if snap.ProviderID != 1 || len(snap.Snapshot) < len(blob) {
		t.Errorf("board_snapshot_received from %d carried %d bytes", snap.ProviderID, len(snap.Snapshot))
	}
	barrier(t, alice)

	if !srv.Registry.IsOnline(1) {
		t.Error("alice should stay online after sending large frames")
	}
}

func TestWS_GameJoinStartAndDisconnect(t *testing.T) {
	srv, ts := newTestServer(t)
	alice := dial(t, srv, ts, 1, "Alice")
	bob := dial(t, srv, ts, 2, "Bob")

	send(t, alice, events.StartGame, nil)
	var e events.ErrorPayload
	readEvent(t, alice, events.Error, &e)
	if e.Message != "Join the game first" {
		t.Errorf("error = %q", e.Message)
	}

	send(t, alice, events.JoinGame, nil)
	barrier(t, alice)
	send(t, bob, events.JoinGame, nil)
	readEvent(t, alice, events.OpponentConnected, nil)

	send(t, alice, events.StartGame, nil)
	var a, b struct {
		Word     string `json:"word"`
		Phase    string `json:"phase"`
		TimeLeft int    `json:"timeLeft"`
	}
	readEvent(t, alice, events.GameStarted, &a)
	readEvent(t, bob, events.GameStarted, &b)
	if a.Word == b.Word || a.Phase != "thinking" || a.TimeLeft != 10 {
		t.Errorf("game-started = %+v / %+v", a, b)
	}

	bob.Close(websocket.StatusNormalClosure, "")

	var left struct {
		PlayerCount int  `json:"playerCount"`
		CanStart    bool `json:"canStart"`
	}
	readEvent(t, alice, events.PlayerLeft, &left)
	if left.PlayerCount != 1 || left.CanStart {
		t.Errorf("player-left = %+v", left)
	}
	session, ok := srv.Games.Get("guessmything")
	if !ok {
		t.Fatal("session should remain while alice is seated")
	}
	if session.Phase() != "waiting" || session.TimerStats().Live != 0 {
		t.Errorf("session = %s with %+v, want waiting and no timer", session.Phase(), session.TimerStats())
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	srv := New(testConfig(), chat.NewMemoryStore(), nil, nil)
	srv.Chat = nil
	c := registry.NewClient(1, "Alice", nil)

	srv.dispatch(context.Background(), c, events.Frame{Event: events.Typing})

	select {
	case raw := <-c.Outbox():
		var frame events.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			t.Fatal(err)
		}
		var e events.ErrorPayload
		json.Unmarshal(frame.Data, &e)
		if frame.Event != events.Error || e.Message != "Internal error" {
			t.Errorf("frame = %s %s", frame.Event, frame.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error frame")
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, ts := newTestServer(t)
	dial(t, srv, ts, 1, "Alice")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "frella_connections_active 1") {
		t.Errorf("metrics missing active connection gauge:\n%s", body)
	}
}

func TestMetrics_UnknownEventsShareOneLabel(t *testing.T) {
	srv, ts := newTestServer(t)
	alice := dial(t, srv, ts, 1, "Alice")

	for i := 0; i < 50; i++ {
		send(t, alice, fmt.Sprintf("junk-%d", i), nil)
	}
	send(t, alice, events.Typing, nil)
	barrier(t, alice)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)

	if strings.Contains(body, `event="junk-`) {
		t.Error("client-chosen event names must not become label values")
	}
	// 50 junk events plus the barrier.
	if !strings.Contains(body, `frella_events_total{event="unsupported"} 51`) {
		t.Errorf("unsupported events not counted under one label:\n%s", body)
	}
	if !strings.Contains(body, `frella_events_total{event="typing"} 1`) {
		t.Errorf("known events should keep their own label:\n%s", body)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=abc", nil)
	if got := bearerToken(r); got != "abc" {
		t.Errorf("query token = %q", got)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer xyz")
	if got := bearerToken(r); got != "xyz" {
		t.Errorf("header token = %q", got)
	}

	r = httptest.NewRequest("GET", "/ws", nil)
	if got := bearerToken(r); got != "" {
		t.Errorf("missing token = %q, want empty", got)
	}
}

func TestDecodeMessageIDs(t *testing.T) {
	ids, err := decodeMessageIDs(json.RawMessage(`[1, "2", 3]`))
	if err != nil || len(ids) != 3 || ids[1] != 2 {
		t.Errorf("bare array = %v, %v", ids, err)
	}

	ids, err = decodeMessageIDs(json.RawMessage(`{"messageIds":[5]}`))
	if err != nil || len(ids) != 1 || ids[0] != 5 {
		t.Errorf("wrapped = %v, %v", ids, err)
	}

	if _, err := decodeMessageIDs(json.RawMessage(`["x"]`)); err == nil {
		t.Error("non-numeric id should fail")
	}

	ids, err = decodeMessageIDs(nil)
	if err != nil || len(ids) != 0 {
		t.Errorf("empty = %v, %v", ids, err)
	}
}
