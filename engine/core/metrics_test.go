package core

import "testing"

func TestFrameMetricsAverage(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.016)
	}
	if got := m.FrameTime(); got < 15.99 || got > 16.01 {
		t.Errorf("average frame time = %f, want 16", got)
	}
}

func TestFrameMetricsFPS(t *testing.T) {
	m := NewFrameMetrics()
	// 0.25s per frame: the fifth update crosses one second with four frames counted
	for i := 0; i < 5; i++ {
		m.Update(0.25)
	}
	if m.FPS() != 4 {
		t.Errorf("fps = %f, want 4", m.FPS())
	}
}
