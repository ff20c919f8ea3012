package detect

import (
	"sync"
	"time"
)

// DefaultMinVolume is the mean amplitude below which a frame counts as silence.
const DefaultMinVolume = 0.01

// Result is the outcome of scoring one frame
type Result struct {
	Similarity float64
	Volume     float64
	Triggered  bool
}

// Detector holds the normalized template and the silence gate
type Detector struct {
	template  []float64
	minVolume float64
}

// NewDetector creates a detector for an already normalized template
func NewDetector(template []float64, minVolume float64) *Detector {
	return &Detector{
		template:  template,
		minVolume: minVolume,
	}
}

// FrameSize is the number of mono samples captured per frame.
func (d *Detector) FrameSize() int {
	return 2 * len(d.template)
}

// Score normalizes frame in place and compares it against the template.
// The threshold is passed per call since the user can move it at any time.
func (d *Detector) Score(frame []float64, threshold float64) Result {
	Normalize(frame)

	res := Result{Volume: Volume(frame)}
	if res.Volume < d.minVolume {
		return res
	}

	res.Similarity = Similarity(frame, d.template)
	res.Triggered = res.Similarity > threshold
	return res
}

// Gate suppresses repeat triggers until the cooldown has elapsed
type Gate struct {
	mu   sync.Mutex
	last time.Time
}

// Mark records an action at now
func (g *Gate) Mark(now time.Time) {
	g.mu.Lock()
	g.last = now
	g.mu.Unlock()
}

// Ready reports whether cooldown has elapsed since the last Mark
func (g *Gate) Ready(now time.Time, cooldown time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return now.Sub(g.last) >= cooldown
}
