package server

import (
	"context"
	"encoding/json"
	"flagsmash/internal/db"
	"flagsmash/internal/gamedata"
	"flagsmash/internal/metrics"
	"flagsmash/internal/sessions"
	"flagsmash/internal/targets"
	"flagsmash/internal/wshub"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := gamedata.DefaultConfig()
	cfg.CountdownSecs = 0
	rules := gamedata.NewRules(cfg, targets.NewSeededSpawner(cfg.TargetSize, 1))

	srv := &Server{
		Hub:     wshub.NewHub(),
		Metrics: metrics.New(),
		Tmpl:    template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
	srv.Sessions = sessions.NewStore(rules, sessions.Options{
		OnExpire: srv.expire,
	})

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Sessions.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) (*websocket.Conn, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn, ctx
}

func write(t *testing.T, ctx context.Context, conn *websocket.Conn, msg wshub.ClientMessage) {
	t.Helper()
	data, _ := json.Marshal(msg)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
}

// readUntil reads frames until one satisfies match.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(wshub.ServerMessage) bool) wshub.ServerMessage {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		var msg wshub.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func TestHandleHome(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"Flag Smash", "/static/img/flag-india.webp", "/ws"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("home page missing %q", want)
		}
	}
}

func TestHandleHome_UnknownPath(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
		Clients  int    `json:"clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	if body.Sessions != 0 || body.Clients != 0 {
		t.Errorf("sessions/clients = %d/%d, want 0/0", body.Sessions, body.Clients)
	}
}

func TestHandleHealth_CountsClients(t *testing.T) {
	_, ts := newTestServer(t)
	conn, ctx := dial(t, ts)
	readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "state" })

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["sessions"] != float64(1) || body["clients"] != float64(1) {
		t.Errorf("health = %v, want one session and one client", body)
	}
}

func TestHandleHealth_DBErrorIsValidJSON(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := db.Connect(dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	database.Close()

	srv, ts := newTestServer(t)
	srv.DB = database

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
	var body struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body.Status != "db_error" || body.Error == "" {
		t.Errorf("health = %+v, want db_error with a message", body)
	}
}

func TestHandleMetrics(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "flagsmash_ws_connections_active") {
		t.Error("metrics output missing flagsmash_ws_connections_active")
	}
}

func TestHandleWS_InitialState(t *testing.T) {
	srv, ts := newTestServer(t)
	conn, ctx := dial(t, ts)

	msg := readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "state" })
	if msg.State.Phase != "idle" || msg.State.MissLimit != 5 {
		t.Errorf("initial state = %+v, want idle with limit 5", msg.State)
	}
	if srv.Sessions.Count() != 1 {
		t.Errorf("sessions = %d, want 1", srv.Sessions.Count())
	}
}

func TestHandleWS_StartAndHit(t *testing.T) {
	_, ts := newTestServer(t)
	conn, ctx := dial(t, ts)

	write(t, ctx, conn, wshub.ClientMessage{Type: "resize", Width: 800, Height: 600})
	write(t, ctx, conn, wshub.ClientMessage{Type: "start"})

	readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "cue" && m.Cue == "start" })
	playing := readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool {
		return m.Type == "state" && m.State.Target != nil
	})
	target := playing.State.Target
	if target.X+target.Size > 800 || target.Y+target.Size > 600 {
		t.Errorf("target %+v clips the 800x600 viewport", target)
	}

	write(t, ctx, conn, wshub.ClientMessage{Type: "click", TargetID: target.ID})

	scored := readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool {
		return m.Type == "state" && m.State.Score == 1
	})
	if scored.State.Feedback == nil || scored.State.Feedback.Kind != "hit" {
		t.Errorf("feedback = %+v, want hit", scored.State.Feedback)
	}
}

func TestHandleWS_Restart(t *testing.T) {
	_, ts := newTestServer(t)
	conn, ctx := dial(t, ts)

	write(t, ctx, conn, wshub.ClientMessage{Type: "start"})
	readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "state" && m.State.Phase == "playing" })

	write(t, ctx, conn, wshub.ClientMessage{Type: "restart"})
	msg := readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "state" && m.State.Phase == "idle" })
	if msg.State.Target != nil || msg.State.Score != 0 || msg.State.Misses != 0 {
		t.Errorf("restarted state = %+v, want fresh idle", msg.State)
	}
}

func TestHandleWS_BadMessageKeepsConnection(t *testing.T) {
	_, ts := newTestServer(t)
	conn, ctx := dial(t, ts)

	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	write(t, ctx, conn, wshub.ClientMessage{Type: "bogus"})
	write(t, ctx, conn, wshub.ClientMessage{Type: "start"})

	readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "state" && m.State.Phase == "playing" })
}

func TestHandleWS_DisconnectDeletesSession(t *testing.T) {
	srv, ts := newTestServer(t)
	conn, ctx := dial(t, ts)
	readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "state" })

	conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for srv.Sessions.Count() != 0 || srv.Hub.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sessions = %d, clients = %d after disconnect, want 0", srv.Sessions.Count(), srv.Hub.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandleWS_Expired(t *testing.T) {
	srv, ts := newTestServer(t)
	conn, ctx := dial(t, ts)
	readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "state" })

	srv.Sessions.Sweep(time.Now().Add(2 * time.Hour))

	readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "expired" })
	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("connection should close after expiry")
	}
}

func TestHandleWS_SweptSessionStopsReading(t *testing.T) {
	cfg := gamedata.DefaultConfig()
	rules := gamedata.NewRules(cfg, targets.NewSeededSpawner(cfg.TargetSize, 1))
	srv := &Server{
		Hub:      wshub.NewHub(),
		Tmpl:     template.Must(template.ParseFS(templatesFS, "templates/*.html")),
		Sessions: sessions.NewStore(rules, sessions.Options{}),
	}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Sessions.Close()
	})

	conn, ctx := dial(t, ts)
	readUntil(t, ctx, conn, func(m wshub.ServerMessage) bool { return m.Type == "state" })

	// No expiry callback, so the hub still holds the client.
	srv.Sessions.Sweep(time.Now().Add(2 * time.Hour))
	write(t, ctx, conn, wshub.ClientMessage{Type: "start"})

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d after the session was swept, want 0", srv.Hub.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
