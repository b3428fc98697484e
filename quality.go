package glass

import "time"

// Adaptive quality tuning.
const (
	QualitySampleCount = 60
	QualityTargetFPS   = 60.0
	qualityLowRatio    = 0.7
	qualityHighRatio   = 0.9
)

// QualitySettings are the shading parameters traded against frame time.
type QualitySettings struct {
	AlphaThreshold float32
	DitherType     DitherType
	DitherStrength float32
}

// QualityController watches frame times and picks QualitySettings.
//
// Samples accumulate in a fixed ring; once it is full the average decides
// the next settings and sampling restarts. Between the low and high FPS
// thresholds the previous settings hold, so small fluctuations do not make
// the settings oscillate.
type QualityController struct {
	Mode    PerformanceMode
	Speed   QualitySettings // used when FPS drops below 70% of target
	Quality QualitySettings // used when FPS rises above 90% of target

	samples [QualitySampleCount]time.Duration
	count   int
	current QualitySettings
	lastFPS float64
}

// NewQualityController creates a controller starting from the control
// snapshot's dither and threshold values.
func NewQualityController(c Controls) *QualityController {
	start := QualitySettings{
		AlphaThreshold: c.AlphaThreshold,
		DitherType:     c.DitherType,
		DitherStrength: c.DitherStrength,
	}
	return &QualityController{
		Mode: c.PerformanceMode,
		Speed: QualitySettings{
			AlphaThreshold: 0.1,
			DitherType:     DitherBayer,
			DitherStrength: 0.5,
		},
		Quality: QualitySettings{
			AlphaThreshold: 0.01,
			DitherType:     DitherBlueNoise,
			DitherStrength: 1,
		},
		current: start,
	}
}

// Settings returns the settings for the next frame.
func (q *QualityController) Settings() QualitySettings {
	switch q.Mode {
	case PerformanceQuality:
		return q.Quality
	case PerformanceSpeed:
		return q.Speed
	default:
		return q.current
	}
}

// LastFPS returns the FPS measured at the last full evaluation, or 0.
func (q *QualityController) LastFPS() float64 {
	return q.lastFPS
}

// Observe records one frame's wall-clock cost. It returns the settings for
// the next frame and true when they changed. Manual modes do not sample.
func (q *QualityController) Observe(frameTime time.Duration) (QualitySettings, bool) {
	if q.Mode != PerformanceAuto {
		return q.Settings(), false
	}

	q.samples[q.count] = frameTime
	q.count++
	if q.count < QualitySampleCount {
		return q.current, false
	}

	var total time.Duration
	for _, s := range q.samples {
		total += s
	}
	q.count = 0

	avgMs := float64(total) / float64(QualitySampleCount) / float64(time.Millisecond)
	if avgMs <= 0 {
		return q.current, false
	}
	q.lastFPS = 1000 / avgMs

	prev := q.current
	switch {
	case q.lastFPS < qualityLowRatio*QualityTargetFPS:
		q.current = q.Speed
	case q.lastFPS > qualityHighRatio*QualityTargetFPS:
		q.current = q.Quality
	}
	return q.current, q.current != prev
}

// SetMode switches performance mode. Entering auto restarts sampling.
func (q *QualityController) SetMode(m PerformanceMode) {
	if m == PerformanceAuto && q.Mode != PerformanceAuto {
		q.count = 0
	}
	q.Mode = m
}
