package scene

import (
	"math"
	"math/rand"

	"github.com/fogleman/ease"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matt-g-everett/ledahead/frame"
	"github.com/matt-g-everett/ledahead/util"
)

// A layer paints its contribution for frame n on top of f. Layers are
// immutable after compilation and may be painted from several goroutines.
type layer interface {
	paint(f *frame.Frame, n int64, progress float64)
}

var luts util.Memoizer

// solid covers the strip with one colour.
type solid struct {
	colour  colorful.Color
	opacity animated
}

func (s *solid) paint(f *frame.Frame, n int64, progress float64) {
	a := s.opacity.at(progress)
	for i := 0; i < f.Len(); i++ {
		f.BlendPixel(i, s.colour, a)
	}
}

// gradientTrail cycles a gradient along the strip.
type gradientTrail struct {
	gradient    GradientTable
	trailLength float64
	speed       animated
	saturation  animated
	luminance   animated
	start       int64
}

func (g *gradientTrail) paint(f *frame.Frame, n int64, progress float64) {
	current := math.Mod(g.speed.at(progress)*float64(n-g.start), g.trailLength)
	s := g.saturation.at(progress)
	l := g.luminance.at(progress)
	numPixels := f.Len()
	for i := 0; i < numPixels; i++ {
		t := math.Mod(float64(i+numPixels)-current, g.trailLength)
		if t < 0 {
			t += g.trailLength
		}
		f.SetPixel(i, g.gradient.GetColor(t/g.trailLength, s, l).Clamped())
	}
}

// twinkle pulses a fixed set of particles, each on its own phase.
type twinkle struct {
	colours   []colorful.Color
	positions []int
	phases    []int
	lut       []float64
	gain      animated
}

// newTwinkle places particles from seed. A positive jitter gives every
// particle a saturation between 1-jitter and 1 times its palette colour's.
func newTwinkle(palette []colorful.Color, particles, period, numPixels int, seed int64, jitter float64) *twinkle {
	r := rand.New(rand.NewSource(seed))
	if particles > numPixels {
		particles = numPixels
	}

	t := new(twinkle)
	t.positions = r.Perm(numPixels)[:particles]
	t.phases = make([]int, particles)
	for i := range t.phases {
		t.phases[i] = r.Intn(period)
	}
	t.colours = make([]colorful.Color, particles)
	for i := range t.colours {
		c := palette[i%len(palette)]
		if jitter > 0 {
			h, chroma, l := c.Hcl()
			c = colorful.Hcl(h, chroma*util.RandomiseSaturation(r, 1-jitter, 1), l).Clamped()
		}
		t.colours[i] = c
	}
	t.lut = util.GenerateLutMemoized(period, &luts)
	return t
}

func (t *twinkle) paint(f *frame.Frame, n int64, progress float64) {
	period := int64(len(t.lut))
	g := t.gain.at(progress)
	for k, pos := range t.positions {
		step := (n + int64(t.phases[k])) % period
		if step < 0 {
			step += period
		}
		f.BlendPixel(pos, t.colours[k], t.lut[step]*g)
	}
}

// streak launches a streak every few frames that runs the length of the
// strip, fading in then out on the way.
type streak struct {
	colours []colorful.Color
	every   int64
	length  float64
	speed   float64
	start   int64
}

// life is the number of frames one streak is visible.
func (s *streak) life(numPixels int) int64 {
	return int64(math.Ceil((float64(numPixels) + s.length) / math.Abs(s.speed)))
}

func (s *streak) paint(f *frame.Frame, n int64, progress float64) {
	numPixels := f.Len()
	life := s.life(numPixels)
	elapsed := n - s.start

	first := (elapsed - life) / s.every
	if first < 0 {
		first = 0
	}
	for k := first; k*s.every <= elapsed; k++ {
		age := elapsed - k*s.every
		if age < 0 || age >= life {
			continue
		}

		x := float64(age) / float64(life)
		gain := ease.InOutQuad(1 - math.Abs(2*x-1))
		head := float64(age) * math.Abs(s.speed)
		c := s.colours[int(k)%len(s.colours)]

		for p := int(math.Floor(head - s.length)); p <= int(math.Ceil(head)); p++ {
			i := p
			if s.speed < 0 {
				i = numPixels - 1 - p
			}
			f.BlendPixel(i, c, gain)
		}
	}
}

// stripe scrolls bands of colour along the strip.
type stripe struct {
	palette []colorful.Color
	width   float64
	speed   animated
	start   int64
}

func (s *stripe) paint(f *frame.Frame, n int64, progress float64) {
	offset := s.speed.at(progress) * float64(n-s.start)
	count := len(s.palette)
	for i := 0; i < f.Len(); i++ {
		band := int(math.Floor((float64(i) + offset) / s.width))
		band %= count
		if band < 0 {
			band += count
		}
		f.SetPixel(i, s.palette[band])
	}
}
