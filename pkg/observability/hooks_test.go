package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopSessionHooks{}
	s.OnSessionStart(ctx, "id", 6, 2)
	s.OnLayoutSettled(ctx, "id", "fdp", time.Second, nil)
	s.OnRevealStep(ctx, "id", 1)
	s.OnFloatStart(ctx, "id", 6)
	s.OnRecovered(ctx, "id", "float", errors.New("boom"))
	s.OnSessionStop(ctx, "id", "floating", nil)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "api.openai.com", "/v1/threads")
	h.OnResponse(ctx, "POST", "api.openai.com", "/v1/threads", 200, time.Second)
	h.OnError(ctx, "POST", "api.openai.com", "/v1/threads", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Session() should return NoopSessionHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customSession := &testSessionHooks{}
	SetSessionHooks(customSession)
	if Session() != customSession {
		t.Error("SetSessionHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// nil is ignored
	SetSessionHooks(nil)
	if Session() != customSession {
		t.Error("SetSessionHooks(nil) should keep existing hooks")
	}

	Reset()
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Reset() should restore NoopSessionHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestCustomSessionHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	hooks := &testSessionHooks{}
	SetSessionHooks(hooks)

	ctx := context.Background()
	Session().OnSessionStart(ctx, "s1", 6, 2)
	Session().OnRevealStep(ctx, "s1", 0)
	Session().OnRevealStep(ctx, "s1", 1)

	if hooks.starts != 1 {
		t.Errorf("starts = %d, want 1", hooks.starts)
	}
	if hooks.steps != 2 {
		t.Errorf("steps = %d, want 2", hooks.steps)
	}
}

type testSessionHooks struct {
	NoopSessionHooks
	starts, steps int
}

func (h *testSessionHooks) OnSessionStart(context.Context, string, int, int) { h.starts++ }
func (h *testSessionHooks) OnRevealStep(context.Context, string, int)        { h.steps++ }

type testHTTPHooks struct{ NoopHTTPHooks }
