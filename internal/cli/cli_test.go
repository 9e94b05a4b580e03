package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/layout"
)

const abcJSON = `{
  "keyinfo": [
    {"id": "A", "keyword": "alpha", "description": "first", "image": "a.png"},
    {"id": "B", "keyword": "beta", "description": "second"},
    {"id": "C", "keyword": "gamma", "description": "third"}
  ],
  "connections": [
    {"from": "A", "to": "B", "relationship": "leads to"},
    {"from": "B", "to": "C", "relationship": "explains"}
  ]
}`

// sandbox runs the test in an empty working directory with its own cache
// and no assistant credentials.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("KEYGRAPH_ASSISTANT_ID", "")
	t.Setenv("KEYGRAPH_ADDR", "")
	return dir
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return name
}

// execute runs the root command with args and returns stdout, stderr
// (command status lines) and the log output.
func execute(t *testing.T, args ...string) (stdout, stderr, logs string, err error) {
	t.Helper()
	var out, errw, logw bytes.Buffer
	c := New(&logw, LogInfo)
	c.Out = &out

	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errw)
	err = root.ExecuteContext(context.Background())
	return out.String(), errw.String(), logw.String(), err
}

func TestVersion(t *testing.T) {
	sandbox(t)
	out, _, _, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "keygraph version dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestRootCommand(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()

	want := []string{"elements", "layout", "render", "play", "fetch", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestElementsCommand(t *testing.T) {
	sandbox(t)
	writeFile(t, "talk.json", abcJSON)

	out, _, _, err := execute(t, "elements", "talk.json")
	if err != nil {
		t.Fatalf("elements: %v", err)
	}
	var g elements.Graph
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(g.Keywords) != 3 || len(g.Details) != 3 || len(g.Edges) != 2 {
		t.Errorf("graph = %d keywords, %d details, %d edges", len(g.Keywords), len(g.Details), len(g.Edges))
	}
	if g.Details[0].ImagePath != "/images/a.png" {
		t.Errorf("image = %q", g.Details[0].ImagePath)
	}
}

func TestElementsCommandYAMLOutput(t *testing.T) {
	sandbox(t)
	writeFile(t, "talk.json", abcJSON)

	out, _, _, err := execute(t, "elements", "talk.json", "-o", "graph.yaml")
	if err != nil {
		t.Fatalf("elements: %v", err)
	}
	if !strings.Contains(out, "graph.yaml") {
		t.Errorf("output does not name the file: %q", out)
	}
	data, err := os.ReadFile("graph.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "keywords:") {
		t.Errorf("graph.yaml is not YAML:\n%s", data)
	}
}

func TestElementsCommandTable(t *testing.T) {
	sandbox(t)
	writeFile(t, "talk.json", abcJSON)

	out, _, _, err := execute(t, "elements", "talk.json", "--table")
	if err != nil {
		t.Fatalf("elements: %v", err)
	}
	for _, want := range []string{"alpha", "gamma", "/images/a.png", "6 nodes", "2 edges"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestElementsCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		code    errors.Code
	}{
		{
			name:    "unknown reference",
			content: `{"keyinfo":[{"id":"A"}],"connections":[{"from":"A","to":"Z"}]}`,
			code:    errors.ErrCodeInvalidReference,
		},
		{
			name:    "duplicate edge rejected",
			content: `{"keyinfo":[{"id":"A"},{"id":"B"}],"connections":[{"from":"A","to":"B"},{"from":"A","to":"B"}]}`,
			args:    []string{"--config", "reject.toml"},
			code:    errors.ErrCodeDuplicateEdge,
		},
		{
			name:    "malformed",
			content: `{"keyinfo": [`,
			code:    errors.ErrCodeInvalidFormat,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sandbox(t)
			writeFile(t, "reject.toml", "[elements]\nduplicate_edges = \"reject\"\n")
			writeFile(t, "bad.json", tt.content)

			args := append([]string{"elements", "bad.json"}, tt.args...)
			_, _, _, err := execute(t, args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadConfigWarnsUnknownKeys(t *testing.T) {
	sandbox(t)
	writeFile(t, "keygraph.toml", "[reveal]\ninterval = \"100ms\"\nspeed = 3\n")
	writeFile(t, "talk.json", abcJSON)

	_, _, logs, err := execute(t, "elements", "talk.json")
	if err != nil {
		t.Fatalf("elements: %v", err)
	}
	if !strings.Contains(logs, "reveal.speed") {
		t.Errorf("no warning for reveal.speed: %q", logs)
	}
}

func TestLayoutCommand(t *testing.T) {
	sandbox(t)
	writeFile(t, "talk.json", abcJSON)

	out, _, logs, err := execute(t, "layout", "talk.json", "--engine", "grid")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	var pos layout.Positions
	if err := json.Unmarshal([]byte(out), &pos); err != nil {
		t.Fatalf("decode positions: %v\n%s", err, out)
	}
	for _, id := range []string{"A", "A-child", "B", "B-child", "C", "C-child"} {
		if _, ok := pos[id]; !ok {
			t.Errorf("no position for %s", id)
		}
	}
	if pos["A"] != pos["A-child"] {
		t.Errorf("keyword and detail should share a grid cell: %v vs %v", pos["A"], pos["A-child"])
	}
	if !strings.Contains(logs, "Laid out graph") {
		t.Errorf("missing progress log: %q", logs)
	}
}

func TestLayoutCommandDOT(t *testing.T) {
	sandbox(t)
	writeFile(t, "talk.json", abcJSON)

	out, _, _, err := execute(t, "layout", "talk.json", "--dot")
	if err != nil {
		t.Fatalf("layout --dot: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "graph") {
		t.Errorf("not a DOT document:\n%s", out)
	}
}

func TestLayoutCommandInvalidEngine(t *testing.T) {
	sandbox(t)
	writeFile(t, "talk.json", abcJSON)

	_, _, _, err := execute(t, "layout", "talk.json", "--engine", "cose")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestRenderCommandDOT(t *testing.T) {
	sandbox(t)
	writeFile(t, "talk.json", abcJSON)

	out, _, _, err := execute(t, "render", "talk.json", "-f", "dot")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "talk.dot") {
		t.Errorf("output does not name talk.dot: %q", out)
	}
	data, err := os.ReadFile("talk.dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "alpha") {
		t.Errorf("snapshot misses a keyword label:\n%s", data)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	sandbox(t)
	writeFile(t, "empty.json", `{"keyinfo":[],"connections":[]}`)

	if _, _, _, err := execute(t, "render", "empty.json"); !errors.Is(err, errors.ErrCodeEmptyDataset) {
		t.Errorf("empty dataset: err = %v", err)
	}
	if _, _, _, err := execute(t, "render", "empty.json", "-f", "pdf"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("pdf: err = %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, input, format, want string
	}{
		{"", "talk.json", "svg", "talk.svg"},
		{"", "dir/talk.yaml", "dot", "dir/talk.dot"},
		{"", "-", "svg", "keygraph.svg"},
		{"out.svg", "talk.json", "svg", "out.svg"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, tt.input, tt.format); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.output, tt.input, tt.format, got, tt.want)
		}
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		path, override, want string
	}{
		{"", "", dataset.FormatJSON},
		{"-", "", dataset.FormatJSON},
		{"out.yml", "", dataset.FormatYAML},
		{"out.json", "YAML", dataset.FormatYAML},
	}
	for _, tt := range tests {
		if got := outputFormat(tt.path, tt.override); got != tt.want {
			t.Errorf("outputFormat(%q, %q) = %q, want %q", tt.path, tt.override, got, tt.want)
		}
	}
}

// =============================================================================
// fetch
// =============================================================================

// fakeAssistant answers every run with reply at once.
func fakeAssistant(t *testing.T, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var runs atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads":
			fmt.Fprint(w, `{"id":"thread_1"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/messages":
			fmt.Fprint(w, `{"id":"msg_1"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/runs":
			runs.Add(1)
			fmt.Fprint(w, `{"id":"run_1","thread_id":"thread_1","status":"completed"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/runs/run_1":
			fmt.Fprint(w, `{"id":"run_1","thread_id":"thread_1","status":"completed"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/messages":
			text, _ := json.Marshal(reply)
			fmt.Fprintf(w, `{"data":[{"id":"msg_2","role":"assistant","content":[{"type":"text","text":{"value":%s}}]}]}`, text)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &runs
}

func TestFetchCommand(t *testing.T) {
	sandbox(t)
	srv, runs := fakeAssistant(t, abcJSON)
	writeFile(t, "keygraph.toml", fmt.Sprintf("[assistant]\nbase_url = %q\nassistant_id = \"asst_test\"\npoll_interval = \"1ms\"\n", srv.URL))
	writeFile(t, "dialogue.txt", "Alice: what is a knowledge graph?\nBob: keywords and relationships.")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, status, _, err := execute(t, "fetch", "dialogue.txt", "-o", "talk.json")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(status, "Extracted 3 keywords") || !strings.Contains(status, "fresh") {
		t.Errorf("status = %q", status)
	}
	ds, err := dataset.ReadFile("talk.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Keywords) != 3 || len(ds.Connections) != 2 {
		t.Errorf("dataset = %+v", ds)
	}

	_, status, _, err = execute(t, "fetch", "dialogue.txt")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !strings.Contains(status, "cached") {
		t.Errorf("second fetch not served from cache: %q", status)
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}

	if _, _, _, err := execute(t, "fetch", "dialogue.txt", "--refresh"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if runs.Load() != 2 {
		t.Errorf("runs after --refresh = %d, want 2", runs.Load())
	}

	out, _, _, err := execute(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 cached reply") {
		t.Errorf("cache clear = %q", out)
	}
}

func TestFetchCommandWithoutKey(t *testing.T) {
	sandbox(t)
	t.Setenv("KEYGRAPH_ASSISTANT_ID", "asst_test")

	_, _, _, err := execute(t, "fetch", "--dialogue", "hello")
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("err = %v, want UNAUTHORIZED", err)
	}
}

func TestReadDialogue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d.txt")
	if err := os.WriteFile(path, []byte("Alice: hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		flag string
		args []string
		want string
		code errors.Code
	}{
		{name: "flag", flag: "Bob: hello", want: "Bob: hello"},
		{name: "file", args: []string{path}, want: "Alice: hi"},
		{name: "both", flag: "x", args: []string{path}, code: errors.ErrCodeInvalidInput},
		{name: "none", code: errors.ErrCodeInvalidInput},
		{name: "blank", flag: "  \n", code: errors.ErrCodeInvalidInput},
		{name: "missing file", args: []string{filepath.Join(dir, "nope.txt")}, code: errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readDialogue(tt.flag, tt.args)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Errorf("err = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("readDialogue = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestCacheCommands(t *testing.T) {
	dir := sandbox(t)

	out, _, _, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(dir, "cache", "keygraph") {
		t.Errorf("cache path = %q", out)
	}

	out, _, _, err = execute(t, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("cache clear on a missing dir = %q", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	sandbox(t)
	out, _, _, err := execute(t, "completion", "zsh")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "keygraph") {
		t.Error("zsh completion does not mention keygraph")
	}
}

func TestCompleteDataset(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"render", ""}, "json\nyaml\nyml\n:8\n"},
		{[]string{"play", ""}, "json\nyaml\nyml\n:8\n"},
		{[]string{"elements", "data.json", ""}, ":4\n"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			sandbox(t)
			out, _, _, err := execute(t, append([]string{cobra.ShellCompRequestCmd}, tt.args...)...)
			if err != nil {
				t.Fatal(err)
			}
			if out != tt.want {
				t.Errorf("completion = %q, want %q", out, tt.want)
			}
		})
	}
}
