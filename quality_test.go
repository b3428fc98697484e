package glass

import (
	"testing"
	"time"
)

// feed observes n frames of the given duration and returns the last result.
func feed(q *QualityController, n int, frame time.Duration) (QualitySettings, bool) {
	var (
		s       QualitySettings
		changed bool
	)
	for range n {
		s, changed = q.Observe(frame)
	}
	return s, changed
}

func TestQualityController_NoDecisionUntilFull(t *testing.T) {
	q := NewQualityController(DefaultControls())
	start := q.Settings()
	if _, changed := feed(q, QualitySampleCount-1, 50*time.Millisecond); changed {
		t.Error("Expected no change before the sample buffer is full")
	}
	if q.Settings() != start {
		t.Errorf("Expected settings %+v to hold, got %+v", start, q.Settings())
	}
	if q.LastFPS() != 0 {
		t.Errorf("Expected no FPS measurement yet, got %v", q.LastFPS())
	}
}

func TestQualityController_DropsToSpeed(t *testing.T) {
	q := NewQualityController(DefaultControls())
	s, changed := feed(q, QualitySampleCount, 50*time.Millisecond) // 20 fps
	if !changed {
		t.Error("Expected a change at 20 fps")
	}
	if s != q.Speed {
		t.Errorf("Expected speed settings, got %+v", s)
	}
	if got := q.LastFPS(); got < 19.9 || got > 20.1 {
		t.Errorf("Expected 20 fps, got %v", got)
	}
}

func TestQualityController_Hysteresis(t *testing.T) {
	q := NewQualityController(DefaultControls())
	feed(q, QualitySampleCount, 50*time.Millisecond)

	// 50 fps lies between 42 and 54: hold speed settings.
	s, changed := feed(q, QualitySampleCount, 20*time.Millisecond)
	if changed || s != q.Speed {
		t.Errorf("Expected speed settings to hold at 50 fps, got %+v (changed=%v)", s, changed)
	}

	// 62.5 fps recovers quality.
	s, changed = feed(q, QualitySampleCount, 16*time.Millisecond)
	if !changed || s != q.Quality {
		t.Errorf("Expected quality settings at 62.5 fps, got %+v (changed=%v)", s, changed)
	}
}

func TestQualityController_ManualModesBypass(t *testing.T) {
	c := DefaultControls()
	c.PerformanceMode = PerformanceQuality
	q := NewQualityController(c)

	s, changed := feed(q, 3*QualitySampleCount, 100*time.Millisecond)
	if changed || s != q.Quality {
		t.Errorf("Expected fixed quality settings, got %+v (changed=%v)", s, changed)
	}
	if q.LastFPS() != 0 {
		t.Error("Expected manual mode not to sample")
	}

	q.SetMode(PerformanceSpeed)
	if q.Settings() != q.Speed {
		t.Errorf("Expected speed settings, got %+v", q.Settings())
	}

	// Back to auto: sampling restarts from an empty buffer.
	q.SetMode(PerformanceAuto)
	if _, changed := feed(q, QualitySampleCount-1, 100*time.Millisecond); changed {
		t.Error("Expected auto mode to wait for a full buffer")
	}
}
