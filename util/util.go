package util

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/fogleman/ease"
)

// EaseFunc maps progress in [0, 1] to an eased value.
type EaseFunc func(t float64) float64

var easings = map[string]EaseFunc{
	"linear":       ease.Linear,
	"inquad":       ease.InQuad,
	"outquad":      ease.OutQuad,
	"inoutquad":    ease.InOutQuad,
	"incubic":      ease.InCubic,
	"outcubic":     ease.OutCubic,
	"inoutcubic":   ease.InOutCubic,
	"insine":       ease.InSine,
	"outsine":      ease.OutSine,
	"inoutsine":    ease.InOutSine,
	"inbounce":     ease.InBounce,
	"outbounce":    ease.OutBounce,
	"inoutbounce":  ease.InOutBounce,
	"inelastic":    ease.InElastic,
	"outelastic":   ease.OutElastic,
	"inoutelastic": ease.InOutElastic,
}

// Ease looks up an easing function by name, ignoring case.
// An empty name is linear.
func Ease(name string) (EaseFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return fn, nil
}

func RandomiseSaturation(r *rand.Rand, min float64, max float64) float64 {
	return r.Float64()*(max-min) + min
}

// GenerateLut builds a symmetric rise-and-fall table of InOutQuad gains.
func GenerateLut(length int) []float64 {
	if length < 2 {
		return make([]float64, length)
	}
	increment := 1.0 / float64(length/2)
	lut := make([]float64, length)
	for i, j := 0, length-1; i < length/2; i, j = i+1, j-1 {
		value := float64(i) * increment
		lut[i] = ease.InOutQuad(value)
		lut[j] = ease.InOutQuad(value)
	}
	return lut
}

// Memoizer caches LUTs by length. Safe for concurrent use.
type Memoizer struct {
	mu   sync.Mutex
	luts map[int][]float64
}

// Lut returns the shared LUT for length. Callers must not modify it.
func (m *Memoizer) Lut(length int) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.luts == nil {
		m.luts = make(map[int][]float64)
	}
	lut, ok := m.luts[length]
	if !ok {
		lut = GenerateLut(length)
		m.luts[length] = lut
	}
	return lut
}

// GenerateLutMemoized is GenerateLut backed by memoizer.
func GenerateLutMemoized(length int, memoizer *Memoizer) []float64 {
	if memoizer == nil {
		return GenerateLut(length)
	}
	return memoizer.Lut(length)
}
