// Package analytics provides the best-effort event sink used across the
// onboarding flow. Recording an event can never fail the caller: transport
// errors are caught at the boundary and logged, nothing more.
package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultEndpoint is the hosted event collector.
const DefaultEndpoint = "https://api.freesupabase.shop/api/track"

const tokenHint = "go to https://freesupabase.shop/docs to get an app token"

// Sink records flow events. Implementations are fire-and-forget: they
// return nothing and must not block or fail the caller.
type Sink interface {
	Record(event string, metadata map[string]any)
}

// Nop is a Sink that discards every event.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(string, map[string]any) {}

// Tracker posts events to the collector. In dev mode events are logged
// locally and never sent.
type Tracker struct {
	apiKey    string
	isDev     bool
	endpoint  string
	userAgent string
	sourceURL string
	sessionID string
	client    *http.Client
	log       *zap.Logger
	wg        sync.WaitGroup
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithEndpoint overrides the collector URL.
func WithEndpoint(url string) Option {
	return func(t *Tracker) { t.endpoint = url }
}

// WithTrackerLogger sets the tracker's logger.
func WithTrackerLogger(log *zap.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Tracker) { t.client = c }
}

// NewTracker builds a tracker for the given app. appName identifies the
// embedding application in the event payload.
func NewTracker(apiKey, appName string, isDev bool, opts ...Option) *Tracker {
	t := &Tracker{
		apiKey:    apiKey,
		isDev:     isDev,
		endpoint:  DefaultEndpoint,
		userAgent: "spillflow (terminal)",
		sourceURL: appName,
		sessionID: uuid.NewString(),
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type eventPayload struct {
	AppID     string         `json:"app_id"`
	EventType string         `json:"eventType"`
	UserAgent string         `json:"userAgent"`
	SourceURL string         `json:"sourceUrl"`
	MetaData  map[string]any `json:"metaData"`
}

// Record implements Sink. The POST happens on its own goroutine so the
// caller never waits on the network; use Flush to drain in-flight sends.
func (t *Tracker) Record(event string, metadata map[string]any) {
	if !t.isDev && t.apiKey == "" {
		t.log.Error("analytics disabled: no api key", zap.String("hint", tokenHint))
		return
	}

	meta := make(map[string]any, len(metadata)+4)
	for k, v := range metadata {
		meta[k] = v
	}
	locale, language, region := hostLocale()
	meta["locale"] = locale
	meta["language"] = language
	meta["region"] = region
	meta["session_id"] = t.sessionID

	p := eventPayload{
		AppID:     t.apiKey,
		EventType: event,
		UserAgent: t.userAgent,
		SourceURL: t.sourceURL,
		MetaData:  meta,
	}

	if t.isDev {
		t.log.Info("dev mode analytics event (not sent)",
			zap.String("event", event), zap.Any("payload", p))
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.post(p)
	}()
}

// Flush blocks until every in-flight send has settled.
func (t *Tracker) Flush() {
	t.wg.Wait()
}

func (t *Tracker) post(p eventPayload) {
	body, err := json.Marshal(p)
	if err != nil {
		t.log.Error("analytics payload marshal failed", zap.Error(err))
		return
	}

	req, err := http.NewRequest(http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		t.log.Error("analytics request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Warn("analytics send failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		t.log.Error("analytics rejected: invalid api key", zap.String("hint", tokenHint))
		return
	}
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		t.log.Warn("analytics error response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(detail)))
	}
}

// hostLocale derives locale metadata from the process environment,
// e.g. LANG=en_US.UTF-8 becomes ("en-US", "en", "US").
func hostLocale() (locale, language, region string) {
	raw := os.Getenv("LC_ALL")
	if raw == "" {
		raw = os.Getenv("LANG")
	}
	raw, _, _ = strings.Cut(raw, ".")
	if raw == "" || strings.EqualFold(raw, "C") || strings.EqualFold(raw, "POSIX") {
		return "", "", ""
	}
	language, region, _ = strings.Cut(raw, "_")
	locale = language
	if region != "" {
		locale = fmt.Sprintf("%s-%s", language, region)
	}
	return locale, language, region
}
