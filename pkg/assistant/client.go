package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/matzehuels/keygraph/pkg/buildinfo"
	"github.com/matzehuels/keygraph/pkg/cache"
	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/httputil"
	"github.com/matzehuels/keygraph/pkg/observability"
)

// Defaults.
const (
	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultPollInterval = 5 * time.Second
	DefaultTimeout      = 5 * time.Minute
	DefaultRetries      = 3
	DefaultRetryDelay   = time.Second

	httpTimeout = 30 * time.Second
)

// =============================================================================
// Options
// =============================================================================

// Options configures a [Client].
type Options struct {
	BaseURL     string
	APIKey      string
	AssistantID string

	// PollInterval is the pause between run status checks. Default: 5s.
	PollInterval time.Duration

	// Timeout bounds a whole exchange. Default: 5m.
	Timeout time.Duration

	// Retries and RetryDelay control retries of transient HTTP failures.
	Retries    int
	RetryDelay time.Duration

	// Cache stores replies by assistant and dialogue. Default: no caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	HTTPClient *http.Client
	Logger     *log.Logger
}

// Validate checks the options.
func (o Options) Validate() error {
	if strings.TrimSpace(o.APIKey) == "" {
		return errors.New(errors.ErrCodeUnauthorized, "assistant API key is not set (OPENAI_API_KEY)")
	}
	if strings.TrimSpace(o.AssistantID) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "assistant id is not set")
	}
	if o.BaseURL != "" {
		if err := errors.ValidateURL(o.BaseURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "assistant base url")
		}
		if u, err := url.Parse(o.BaseURL); err != nil || u.Host == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "invalid assistant base url %q", o.BaseURL)
		}
	}
	if o.PollInterval < 0 || o.Timeout < 0 || o.RetryDelay < 0 || o.Retries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "assistant intervals must not be negative")
	}
	return nil
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retries == 0 {
		o.Retries = DefaultRetries
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Cache == nil {
		o.Cache = cache.NullCache{}
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: httpTimeout}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// =============================================================================
// Client
// =============================================================================

// Client runs assistant exchanges. It is safe for concurrent use; run
// status polls of all exchanges share one rate limiter.
type Client struct {
	opts    Options
	limiter *rate.Limiter
}

// New returns a client for opts.
func New(opts Options) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.SetDefaults()
	return &Client{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.PollInterval), 1),
	}, nil
}

// Exchange sends dialogue to the assistant and decodes its reply.
func (c *Client) Exchange(ctx context.Context, dialogue string) (*Reply, error) {
	if strings.TrimSpace(dialogue) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dialogue is empty")
	}

	key := cache.ReplyKey(c.opts.AssistantID, dialogue)
	data, ok, err := c.opts.Cache.Get(ctx, key)
	if err != nil {
		c.opts.Logger.Debug("assistant cache read failed", "err", err)
	}
	if ok {
		reply, err := decodeReply(string(data))
		if err == nil {
			c.opts.Logger.Debug("assistant reply from cache")
			reply.Cached = true
			return reply, nil
		}
		c.opts.Logger.Debug("discarding unreadable cached reply", "err", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	reply, err := c.exchange(ctx, dialogue)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "assistant exchange exceeded %s", c.opts.Timeout)
		}
		return nil, err
	}

	if err := c.opts.Cache.Set(ctx, key, []byte(reply.Text), c.opts.CacheTTL); err != nil {
		c.opts.Logger.Warn("could not cache assistant reply", "err", err)
	}
	return reply, nil
}

func (c *Client) exchange(ctx context.Context, dialogue string) (*Reply, error) {
	var th thread
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &th); err != nil {
		return nil, wrap(err, "create thread")
	}
	logger := c.opts.Logger.With("thread", th.ID)

	msg := messageRequest{Role: "user", Content: dialogue}
	if err := c.doOnce(ctx, http.MethodPost, "/threads/"+th.ID+"/messages", msg, nil); err != nil {
		return nil, wrap(err, "post dialogue")
	}

	var r run
	if err := c.doOnce(ctx, http.MethodPost, "/threads/"+th.ID+"/runs", runRequest{AssistantID: c.opts.AssistantID}, &r); err != nil {
		return nil, wrap(err, "start run")
	}
	logger.Debug("assistant run started", "run", r.ID)

	done, err := c.wait(ctx, th.ID, r)
	if err != nil {
		return nil, err
	}
	if done.Status != StatusCompleted {
		details := ""
		if done.LastError != nil {
			details = ": " + done.LastError.Code + ": " + done.LastError.Message
		}
		logger.Error("assistant run did not complete", "run", done.ID, "status", done.Status)
		return nil, errors.New(errors.ErrCodeInternal, "run %s %s%s", done.ID, done.Status, details)
	}

	text, err := c.latestReply(ctx, th.ID)
	if err != nil {
		return nil, err
	}
	logger.Debug("assistant replied", "bytes", len(text))

	reply, err := decodeReply(text)
	if err != nil {
		return nil, err
	}
	reply.ThreadID, reply.RunID = th.ID, done.ID
	return reply, nil
}

// wait polls r until it reaches a terminal status.
func (c *Client) wait(ctx context.Context, threadID string, r run) (run, error) {
	for !r.terminal() {
		if err := c.limiter.Wait(ctx); err != nil {
			return run{}, errors.Wrap(errors.ErrCodeTimeout, err, "waiting for run %s", r.ID)
		}
		if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+r.ID, nil, &r); err != nil {
			return run{}, wrap(err, "poll run")
		}
		c.opts.Logger.Debug("assistant run", "run", r.ID, "status", r.Status)
	}
	return r, nil
}

// latestReply returns the newest assistant message of the thread.
func (c *Client) latestReply(ctx context.Context, threadID string) (string, error) {
	var list messageList
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages?order=desc", nil, &list); err != nil {
		return "", wrap(err, "list messages")
	}
	for _, m := range list.Data {
		if m.Role == "assistant" {
			return m.text(), nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "thread %s has no assistant message", threadID)
}

// do sends one JSON request, retrying transient failures. A nil out
// discards the body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body, err := encodeBody(in)
	if err != nil {
		return err
	}
	return httputil.Retry(ctx, c.opts.Retries, c.opts.RetryDelay, func() error {
		return c.send(ctx, method, path, body, out)
	})
}

// doOnce sends a request that must not be repeated: the server may have
// accepted it before the failure, and a retry would post the dialogue
// twice or start a second run.
func (c *Client) doOnce(ctx context.Context, method, path string, in, out any) error {
	body, err := encodeBody(in)
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, body, out)
}

func encodeBody(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	host, route := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, method, host, route)
	start := time.Now()

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, route, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, route)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, host, route, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s response", route)
	}
	return nil
}

// =============================================================================
// Reply decoding
// =============================================================================

// decodeReply parses text as a dataset. A surrounding Markdown code fence
// is ignored.
func decodeReply(text string) (*Reply, error) {
	ds, err := dataset.Unmarshal([]byte(stripFence(text)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "assistant reply is not a dataset")
	}
	return &Reply{Text: text, Data: ds}, nil
}

// wrap adds context to err, keeping its code.
func wrap(err error, what string) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeNetwork
	}
	return errors.Wrap(code, err, "%s", what)
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
