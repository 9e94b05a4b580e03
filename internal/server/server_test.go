package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/keygraph/internal/metrics"
	"github.com/matzehuels/keygraph/pkg/assistant"
	"github.com/matzehuels/keygraph/pkg/clock"
	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/layout"
	"github.com/matzehuels/keygraph/pkg/session"
	"github.com/matzehuels/keygraph/pkg/surface"
)

const abcJSON = `{
  "keyinfo": [
    {"id": "A", "keyword": "a", "description": "first", "image": "a.png"},
    {"id": "B", "keyword": "b", "description": "second"},
    {"id": "C", "keyword": "c", "description": "third"}
  ],
  "connections": [
    {"from": "A", "to": "B", "relationship": "r1"},
    {"from": "B", "to": "C", "relationship": "r2"}
  ]
}`

type fakeExchanger struct {
	reply *assistant.Reply
	err   error
	got   string
}

func (f *fakeExchanger) Exchange(_ context.Context, dialogue string) (*assistant.Reply, error) {
	f.got = dialogue
	return f.reply, f.err
}

type fixture struct {
	clk     *clock.Fake
	adapter *layout.Manual
	canvas  *surface.Canvas
	lc      *session.Lifecycle
	srv     *httptest.Server
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		clk:     clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		adapter: layout.NewManual(),
		canvas:  surface.NewCanvas(),
	}
	lc, err := session.New(session.Options{Adapter: f.adapter, Surface: f.canvas, Clock: f.clk, Seed: 1})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	f.lc = lc
	t.Cleanup(lc.Close)

	opts := Options{Lifecycle: lc, Canvas: f.canvas}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.srv = httptest.NewServer(s.Handler())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodGet, "/health", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "healthy") {
		t.Errorf("GET /health = %d %s", resp.StatusCode, body)
	}
}

func TestSessionRoutes(t *testing.T) {
	f := newFixture(t, nil)

	resp, body := f.do(t, http.MethodPost, "/api/sessions", "application/json", abcJSON)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/sessions = %d %s", resp.StatusCode, body)
	}
	created := decode[sessionView](t, body)
	if created.State != "awaiting_layout" || created.Nodes != 6 || created.Edges != 2 {
		t.Errorf("created = %+v", created)
	}

	f.adapter.Last().Settle(nil)
	f.clk.Advance(2 * time.Second)

	resp, body = f.do(t, http.MethodGet, "/api/sessions/current", "", "")
	current := decode[sessionView](t, body)
	if resp.StatusCode != http.StatusOK || current.ID != created.ID || current.State != "floating" {
		t.Errorf("GET current = %d %+v", resp.StatusCode, current)
	}

	_, body = f.do(t, http.MethodGet, "/api/graph", "", "")
	g := decode[graphResponse](t, body)
	if len(g.Elements) != 8 || len(g.Frame.Visible) != 8 || g.Session == nil {
		t.Errorf("graph: %d elements, %d visible, session %v", len(g.Elements), len(g.Frame.Visible), g.Session)
	}
	if _, ok := g.Styles["keyword-node"]; !ok {
		t.Errorf("styles = %v", g.Styles)
	}

	resp, _ = f.do(t, http.MethodDelete, "/api/sessions/current", "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE current = %d", resp.StatusCode)
	}
	resp, body = f.do(t, http.MethodGet, "/api/sessions/current", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET current after delete = %d", resp.StatusCode)
	}
	if e := decode[errorBody](t, body); e.Error.Code != string(errors.ErrCodeNotFound) {
		t.Errorf("error = %+v", e)
	}
	resp, _ = f.do(t, http.MethodDelete, "/api/sessions/current", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE = %d", resp.StatusCode)
	}
}

func TestStartSessionYAML(t *testing.T) {
	f := newFixture(t, nil)
	yamlBody := "keyinfo:\n  - id: A\n    keyword: a\n  - id: B\n    keyword: b\nconnections:\n  - from: A\n    to: B\n"
	resp, body := f.do(t, http.MethodPost, "/api/sessions", "application/yaml", yamlBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST yaml = %d %s", resp.StatusCode, body)
	}
	if v := decode[sessionView](t, body); v.Nodes != 4 || v.Edges != 1 {
		t.Errorf("session = %+v", v)
	}
}

func TestStartSessionErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"malformed", `{"keyinfo": [`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"unknown reference", `{"keyinfo":[{"id":"A"}],"connections":[{"from":"A","to":"Z"}]}`, http.StatusUnprocessableEntity, errors.ErrCodeInvalidReference},
		{"duplicate id", `{"keyinfo":[{"id":"A"},{"id":"A"}]}`, http.StatusUnprocessableEntity, errors.ErrCodeDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			resp, body := f.do(t, http.MethodPost, "/api/sessions", "application/json", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			if e := decode[errorBody](t, body); e.Error.Code != string(tt.code) {
				t.Errorf("code = %q, want %q", e.Error.Code, tt.code)
			}
		})
	}
}

func TestEmptySession(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodPost, "/api/sessions", "application/json", `{"keyinfo":[],"connections":[]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if v := decode[sessionView](t, body); !v.Empty || v.State != "idle" {
		t.Errorf("session = %+v", v)
	}
}

func TestChat(t *testing.T) {
	ds, _ := dataset.Unmarshal([]byte(abcJSON))
	ex := &fakeExchanger{reply: &assistant.Reply{Text: abcJSON, Data: ds}}
	f := newFixture(t, func(o *Options) { o.Assistant = ex })

	resp, body := f.do(t, http.MethodPost, "/chat", "application/json", `{"dialogue":"Alice: hi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /chat = %d %s", resp.StatusCode, body)
	}
	got := decode[chatResponse](t, body)
	if got.Reply != abcJSON || len(got.Data.Keywords) != 3 || got.Session == nil {
		t.Errorf("chat response = %+v", got)
	}
	if ex.got != "Alice: hi" {
		t.Errorf("dialogue = %q", ex.got)
	}
	if f.lc.Current() == nil {
		t.Error("chat should start a session")
	}
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		ex     Exchanger
		body   string
		status int
	}{
		{"no assistant", nil, `{"dialogue":"hi"}`, http.StatusNotImplemented},
		{"bad request", &fakeExchanger{}, `not json`, http.StatusBadRequest},
		{"invalid reply", &fakeExchanger{err: errors.New(errors.ErrCodeInvalidFormat, "not a dataset")}, `{"dialogue":"hi"}`, http.StatusBadGateway},
		{"run failed", &fakeExchanger{err: errors.New(errors.ErrCodeInternal, "run failed")}, `{"dialogue":"hi"}`, http.StatusBadGateway},
		{"timeout", &fakeExchanger{err: errors.New(errors.ErrCodeTimeout, "slow")}, `{"dialogue":"hi"}`, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(o *Options) { o.Assistant = tt.ex })
			resp, body := f.do(t, http.MethodPost, "/chat", "application/json", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.AllowedOrigins = []string{"http://localhost:3000"} })

	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestMetricsRoute(t *testing.T) {
	c := metrics.New()
	f := newFixture(t, func(o *Options) { o.Metrics = c })
	f.do(t, http.MethodGet, "/health", "", "")

	resp, body := f.do(t, http.MethodGet, "/metrics", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `route="/health"`) {
		t.Errorf("GET /metrics = %d, missing /health series", resp.StatusCode)
	}
}

func TestFrames(t *testing.T) {
	f := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/api/frames", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	events := make(chan surface.Frame, 16)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var fr surface.Frame
				if json.Unmarshal([]byte(data), &fr) == nil {
					events <- fr
				}
			}
		}
	}()

	next := func() surface.Frame {
		t.Helper()
		select {
		case fr, ok := <-events:
			if !ok {
				t.Fatal("stream closed")
			}
			return fr
		case <-time.After(5 * time.Second):
			t.Fatal("no frame")
		}
		return surface.Frame{}
	}

	if fr := next(); fr.Mounted {
		t.Errorf("initial frame = %+v", fr)
	}

	if _, err := f.lc.StartSession(context.Background(), mustDataset(t)); err != nil {
		t.Fatal(err)
	}
	f.adapter.Last().Settle(nil)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("A never became visible on the stream")
		default:
		}
		if fr := next(); fr.IsVisible("A") {
			return
		}
	}
}

func TestServeShutdown(t *testing.T) {
	lc, _ := session.New(session.Options{Adapter: layout.NewManual()})
	s, err := New(Options{Lifecycle: lc, Canvas: surface.NewCanvas()})
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if _, err := lc.StartSession(context.Background(), dataset.Dataset{}); err == nil {
		t.Error("lifecycle should be closed after shutdown")
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("New() = %v, want INVALID_CONFIG", err)
	}
}

func mustDataset(t *testing.T) dataset.Dataset {
	t.Helper()
	ds, err := dataset.Unmarshal([]byte(abcJSON))
	if err != nil {
		t.Fatal(err)
	}
	return ds
}
