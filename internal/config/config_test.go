package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spillflow/internal/platform"
	"spillflow/internal/theme"
)

const sampleConfig = `
animation_duration_ms: 300
show_back_button: false
wrap_in_modal_on_web: true
theme: dark
fonts: "Inter"
api_key: key-123
platform: android
intro:
  title: Welcome
  button: Get Started
steps:
  - title: First
    description: "Some *markdown* here."
  - title: Second
    image: second.png
    position: bottom
    show_back_button: true
paywall:
  title: Go Pro
  products:
    - skus:
        ios: [pro_monthly_ios]
        android: [pro_monthly_android]
      title: Monthly
      sort_order: 1
  restore_text: Restore Purchases
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 300*time.Millisecond, cfg.AnimationDuration())
	assert.Equal(t, theme.Dark, cfg.Theme)
	assert.Equal(t, platform.Android, cfg.ResolvedPlatform())
	assert.Equal(t, "Welcome", cfg.Intro.Title)
	require.Len(t, cfg.Steps, 2)

	assert.False(t, cfg.BackButtonEnabled(cfg.Steps[0]), "flow-wide setting applies")
	assert.True(t, cfg.BackButtonEnabled(cfg.Steps[1]), "per-step override wins")

	require.NotNil(t, cfg.Paywall)
	assert.True(t, cfg.HasIAP())
	assert.Equal(t, []string{"pro_monthly_android"}, cfg.SKUs())

	resolved := cfg.ResolveTheme(theme.Insets{})
	assert.Equal(t, theme.DarkTheme().Backgrounds, resolved.Backgrounds)
	assert.Equal(t, "Inter", resolved.Fonts.StepTitle)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.AnimationDuration())
	assert.True(t, cfg.BackButtonEnabled(StepConfig{}))
	assert.True(t, cfg.CloseButtonEnabled())
	assert.False(t, cfg.HasIAP())
	assert.Empty(t, cfg.SKUs())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{"negative duration", "animation_duration_ms: -1\n", "must not be negative"},
		{"unknown theme", "theme: solarized\n", "unknown theme"},
		{"unknown platform", "platform: blackberry\n", "unknown platform"},
		{"bad image position", "steps:\n  - position: left\n", "unknown image position"},
		{"product without skus", "paywall:\n  products:\n    - title: Empty\n", "no SKUs"},
		{"plan without id", "paywall:\n  plans:\n    - title: Weekly\n", "missing an id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "animation_duration_ms: 100\n")

	reloaded := make(chan *FlowConfig, 4)
	w, err := NewWatcher(path, nil, func(cfg *FlowConfig) { reloaded <- cfg })
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("animation_duration_ms: 250\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 250*time.Millisecond, cfg.AnimationDuration())
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never delivered the reloaded config")
	}
}

func TestWatcher_FailedStartLeavesStopNonBlocking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "flow.yaml")

	w, err := NewWatcher(path, nil, nil)
	require.NoError(t, err)
	require.Error(t, w.Start(t.Context()), "watching a missing directory must fail")

	// No event loop ever ran, so Stop must return instead of waiting for one.
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}

func TestWatcher_InvalidFileKeepsRunning(t *testing.T) {
	path := writeConfig(t, "animation_duration_ms: 100\n")

	reloaded := make(chan *FlowConfig, 4)
	w, err := NewWatcher(path, nil, func(cfg *FlowConfig) { reloaded <- cfg })
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	defer w.Stop()

	// A broken save must not kill the watcher.
	require.NoError(t, os.WriteFile(path, []byte("animation_duration_ms: -5\n"), 0644))
	time.Sleep(time.Second)
	require.NoError(t, os.WriteFile(path, []byte("animation_duration_ms: 400\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 400*time.Millisecond, cfg.AnimationDuration())
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not recover after an invalid reload")
	}
}
