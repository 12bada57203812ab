package analytics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	auth    string
	payload eventPayload
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var got []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p eventPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		mu.Lock()
		got = append(got, recordedRequest{auth: r.Header.Get("Authorization"), payload: p})
		mu.Unlock()
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]recordedRequest, len(got))
		copy(out, got)
		return out
	}
}

func TestTracker_PostsEvent(t *testing.T) {
	srv, requests := newCaptureServer(t)

	tr := NewTracker("key-123", "demo-app", false, WithEndpoint(srv.URL))
	tr.Record("step_change", map[string]any{"from_index": -1, "to_index": 0})
	tr.Flush()

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, "Bearer key-123", got[0].auth)
	assert.Equal(t, "step_change", got[0].payload.EventType)
	assert.Equal(t, "key-123", got[0].payload.AppID)
	assert.Equal(t, "demo-app", got[0].payload.SourceURL)
	assert.Contains(t, got[0].payload.MetaData, "session_id")
	assert.EqualValues(t, 0, got[0].payload.MetaData["to_index"])
}

func TestTracker_DevModeNeverSends(t *testing.T) {
	srv, requests := newCaptureServer(t)

	tr := NewTracker("key-123", "demo-app", true, WithEndpoint(srv.URL))
	tr.Record("complete", nil)
	tr.Flush()

	assert.Empty(t, requests())
}

func TestTracker_MissingKeyDegradesToNoop(t *testing.T) {
	srv, requests := newCaptureServer(t)

	tr := NewTracker("", "demo-app", false, WithEndpoint(srv.URL))
	tr.Record("complete", nil)
	tr.Flush()

	assert.Empty(t, requests())
}

func TestTracker_ServerErrorDoesNotPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	tr := NewTracker("bad-key", "demo-app", false, WithEndpoint(srv.URL))

	// Record must not panic or surface the failure in any way.
	tr.Record("purchase_error", map[string]any{"error": "declined"})
	tr.Flush()
}

func TestHostLocale(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LANG", "en_US.UTF-8")

	locale, language, region := hostLocale()
	assert.Equal(t, "en-US", locale)
	assert.Equal(t, "en", language)
	assert.Equal(t, "US", region)

	t.Setenv("LANG", "C")
	locale, language, region = hostLocale()
	assert.Empty(t, locale)
	assert.Empty(t, language)
	assert.Empty(t, region)
}
