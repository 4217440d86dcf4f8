package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/brefaltsimon/AI-MazeGame/internal/game"
)

func newTestSim(t *testing.T) *game.Sim {
	t.Helper()
	s, err := game.NewSim(
		game.WithSeed(7),
		game.WithLayout(
			"#######",
			"#G....#",
			"#.....#",
			"#....T#",
			"#######",
		),
	)
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	return s
}

func validate(t *testing.T, schema string, raw []byte) {
	t.Helper()
	s, err := jsonschema.Compile(filepath.Join("..", "..", "..", "schemas", schema))
	if err != nil {
		t.Fatalf("compile %s: %v", schema, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("%s: %v\n%s", schema, err, raw)
	}
}

func TestFrameOf_MatchesSchema(t *testing.T) {
	s := newTestSim(t)
	s.RunTicks(90)
	raw, err := json.Marshal(FrameOf(s))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	validate(t, "frame.schema.json", raw)

	f := FrameOf(s)
	if f.Tick != 90 || len(f.Guards) != 1 || f.Intruder == nil {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if len(f.Trails) == 0 {
		t.Fatalf("expected scent trails after 90 ticks")
	}
	for i := 1; i < len(f.Trails); i++ {
		a, b := f.Trails[i-1], f.Trails[i]
		if a.Y > b.Y || (a.Y == b.Y && a.X >= b.X) {
			t.Fatalf("trails out of order at %d: %+v then %+v", i, a, b)
		}
	}
}

func TestBootstrapHandler(t *testing.T) {
	s := newTestSim(t)
	srv := NewServer(s, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/bootstrap")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	validate(t, "bootstrap.schema.json", raw)

	var boot Bootstrap
	if err := json.Unmarshal(raw, &boot); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if boot.Cols != 7 || boot.Rows != 5 || len(boot.Walls) != len(s.Grid.Walls()) {
		t.Fatalf("unexpected bootstrap: %+v", boot)
	}
}

func TestBootstrapHandler_RejectsPost(t *testing.T) {
	srv := NewServer(newTestSim(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/bootstrap", nil)
	req.RemoteAddr = "127.0.0.1:5000"
	rr := httptest.NewRecorder()
	srv.BootstrapHandler()(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d, want 405", rr.Code)
	}
}

func TestHandlers_RejectRemoteClients(t *testing.T) {
	srv := NewServer(newTestSim(t), nil)
	for _, path := range []string{"/v1/bootstrap", "/v1/observe"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.5:1000"
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s: status %d, want 403", path, rr.Code)
		}
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:80":  true,
		"[::1]:9000":    true,
		"::1":           true,
		"10.0.0.1:1234": false,
		"example:1":     false,
		"":              false,
	}
	for addr, want := range cases {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("isLoopbackRemote(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestWSHandler_StreamsFrames(t *testing.T) {
	srv := NewServer(newTestSim(t), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/observe"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		if err := srv.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	for want := 1; want <= 3; want++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if f.Tick != want {
			t.Fatalf("frame tick %d, want %d", f.Tick, want)
		}
	}
}

func TestPublish_DropsForSlowSubscriber(t *testing.T) {
	srv := NewServer(newTestSim(t), nil)
	id, _ := srv.subscribe()
	for i := 0; i < subscriberBuffer+5; i++ {
		if err := srv.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if got := srv.Dropped(); got != 5 {
		t.Fatalf("dropped %d, want 5", got)
	}
	srv.unsubscribe(id)
	if srv.Subscribers() != 0 {
		t.Fatalf("subscriber not removed")
	}
}
