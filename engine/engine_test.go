package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(&Game{
		ApplicationConfig: &ApplicationConfig{
			ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
			Name:       "engine-test",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEngineNotInitialized(t *testing.T) {
	e := newTestEngine(t)
	if e.config.ApplicationName != "engine-test" {
		t.Errorf("name override lost: %q", e.config.ApplicationName)
	}

	if err := e.Run(); !errors.Is(err, core.ErrNotInitialized) {
		t.Errorf("Run before Initialize = %v", err)
	}
	if e.Stage() != EngineStageUninitialized {
		t.Errorf("stage = %d", e.Stage())
	}
	if _, err := e.PipelineConfig(renderer.VertexPosColor, "colored"); !errors.Is(err, core.ErrNotInitialized) {
		t.Errorf("PipelineConfig before Initialize = %v", err)
	}
}

func TestRequestCloseFromAnotherGoroutine(t *testing.T) {
	e := newTestEngine(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.RequestClose()
	}()
	<-done
	if !e.closeRequested.Load() {
		t.Error("close request not recorded")
	}
}
