// Package scene compiles YAML scene documents into immutable blueprints and
// evaluates them into frames.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/matt-g-everett/ledahead/frame"
)

// ErrFrameOutOfRange is returned by Evaluate for frames outside the scene.
var ErrFrameOutOfRange = errors.New("scene: frame out of range")

// Document is the YAML form of a scene.
type Document struct {
	Name       string      `yaml:"name"`
	Pixels     int         `yaml:"pixels"`
	Frames     Window      `yaml:"frames"`
	Background string      `yaml:"background"`
	Layers     []LayerSpec `yaml:"layers"`
}

// Window is an inclusive frame range.
type Window struct {
	Start int64 `yaml:"start"`
	End   int64 `yaml:"end"`
}

// LayerSpec describes one layer. Which fields apply depends on Kind.
type LayerSpec struct {
	Kind       string        `yaml:"kind"`
	Colour     string        `yaml:"colour"`
	Palette    []string      `yaml:"palette"`
	Stops      GradientTable `yaml:"stops"`
	Trail      int           `yaml:"trail"`
	Speed      Value         `yaml:"speed"`
	Saturation Value         `yaml:"saturation"`
	Luminance  Value         `yaml:"luminance"`
	Opacity    Value         `yaml:"opacity"`
	Particles  int           `yaml:"particles"`
	Period     int           `yaml:"period"`
	Seed       int64         `yaml:"seed"`
	Every      int64         `yaml:"every"`
	Length     int           `yaml:"length"`
	Width      int           `yaml:"width"`
	Jitter     float64       `yaml:"jitter"`
}

// Blueprint is a compiled scene. It is never modified after Parse, so one
// Blueprint can be evaluated from any number of goroutines.
type Blueprint struct {
	name       string
	pixels     int
	start      int64
	end        int64
	background colorful.Color
	layers     []layer
}

// ParseFile reads and compiles the scene document at path.
func ParseFile(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: reading %s: %w", path, err)
	}
	bp, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bp, nil
}

// Parse compiles a scene document. Unknown fields are an error.
func Parse(source []byte) (*Blueprint, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(source))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("scene: parsing: %w", err)
	}
	return Compile(doc)
}

// Compile validates doc and builds its Blueprint.
func Compile(doc Document) (*Blueprint, error) {
	if doc.Pixels <= 0 || doc.Pixels > frame.MaxPixels {
		return nil, fmt.Errorf("scene: pixels must be between 1 and %d, got %d", frame.MaxPixels, doc.Pixels)
	}
	if doc.Frames.Start > doc.Frames.End {
		return nil, fmt.Errorf("scene: frames start %d is after end %d", doc.Frames.Start, doc.Frames.End)
	}

	b := &Blueprint{
		name:   doc.Name,
		pixels: doc.Pixels,
		start:  doc.Frames.Start,
		end:    doc.Frames.End,
	}

	if doc.Background != "" {
		c, err := colorful.Hex(doc.Background)
		if err != nil {
			return nil, fmt.Errorf("scene: background: %w", err)
		}
		b.background = c
	}

	for i, ls := range doc.Layers {
		l, err := b.compileLayer(ls)
		if err != nil {
			return nil, fmt.Errorf("scene: layer %d (%s): %w", i, ls.Kind, err)
		}
		b.layers = append(b.layers, l)
	}

	return b, nil
}

func (b *Blueprint) compileLayer(ls LayerSpec) (layer, error) {
	switch ls.Kind {
	case "solid":
		c, err := parseColour(ls.Colour, "#ffffff")
		if err != nil {
			return nil, err
		}
		var vc valueCompiler
		sl := &solid{colour: c, opacity: vc.compile("opacity", ls.Opacity, 1)}
		return sl, vc.err

	case "gradient":
		if len(ls.Stops) < 2 {
			return nil, errors.New("gradient needs at least two stops")
		}
		stops := append(GradientTable(nil), ls.Stops...)
		sort.SliceStable(stops, func(i, j int) bool { return stops[i].Pos < stops[j].Pos })
		trail := ls.Trail
		if trail <= 0 {
			trail = b.pixels
		}
		var vc valueCompiler
		g := &gradientTrail{
			gradient:    stops,
			trailLength: float64(trail),
			speed:       vc.compile("speed", ls.Speed, 2),
			saturation:  vc.compile("saturation", ls.Saturation, 1),
			luminance:   vc.compile("luminance", ls.Luminance, 0.05),
			start:       b.start,
		}
		return g, vc.err

	case "twinkle":
		colours, err := parsePalette(ls.Colour, ls.Palette, "#404040")
		if err != nil {
			return nil, err
		}
		if ls.Particles < 0 {
			return nil, fmt.Errorf("particles must not be negative, got %d", ls.Particles)
		}
		period := ls.Period
		if period == 0 {
			period = 24
		}
		if period < 2 {
			return nil, fmt.Errorf("period must be at least 2, got %d", period)
		}
		if ls.Jitter < 0 || ls.Jitter > 1 {
			return nil, fmt.Errorf("jitter must be between 0 and 1, got %v", ls.Jitter)
		}
		t := newTwinkle(colours, ls.Particles, period, b.pixels, ls.Seed, ls.Jitter)
		var vc valueCompiler
		t.gain = vc.compile("opacity", ls.Opacity, 1)
		return t, vc.err

	case "streak":
		colours, err := parsePalette(ls.Colour, ls.Palette, "#ff2060")
		if err != nil {
			return nil, err
		}
		if ls.Every <= 0 {
			return nil, fmt.Errorf("every must be positive, got %d", ls.Every)
		}
		length := ls.Length
		if length <= 0 {
			length = 10
		}
		if ls.Speed.IsAnimated() {
			return nil, errors.New("streak speed must be a plain number")
		}
		speed := 1.0
		if ls.Speed.IsSet() {
			speed = ls.Speed.From
		}
		if speed == 0 {
			return nil, errors.New("speed must not be zero")
		}
		return &streak{
			colours: colours,
			every:   ls.Every,
			length:  float64(length),
			speed:   speed,
			start:   b.start,
		}, nil

	case "stripe":
		if len(ls.Palette) == 0 {
			return nil, errors.New("stripe needs a palette")
		}
		palette, err := parsePalette("", ls.Palette, "")
		if err != nil {
			return nil, err
		}
		width := ls.Width
		if width <= 0 {
			width = 100
		}
		var vc valueCompiler
		st := &stripe{
			palette: palette,
			width:   float64(width),
			speed:   vc.compile("speed", ls.Speed, 1),
			start:   b.start,
		}
		return st, vc.err

	default:
		return nil, fmt.Errorf("unknown layer kind %q", ls.Kind)
	}
}

func parseColour(hex, def string) (colorful.Color, error) {
	if hex == "" {
		hex = def
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("colour %q: %w", hex, err)
	}
	return c, nil
}

func parsePalette(colour string, palette []string, def string) ([]colorful.Color, error) {
	if len(palette) == 0 {
		c, err := parseColour(colour, def)
		if err != nil {
			return nil, err
		}
		return []colorful.Color{c}, nil
	}

	out := make([]colorful.Color, 0, len(palette))
	for _, hex := range palette {
		c, err := parseColour(hex, def)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Name of the scene.
func (b *Blueprint) Name() string { return b.name }

// Pixels is the strip length the scene renders.
func (b *Blueprint) Pixels() int { return b.pixels }

// Window returns the inclusive frame range of the scene.
func (b *Blueprint) Window() (start, end int64) { return b.start, b.end }

// Evaluate renders frame n into a new Frame.
func (b *Blueprint) Evaluate(n int64) (*frame.Frame, error) {
	if n < b.start || n > b.end {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrFrameOutOfRange, n, b.start, b.end)
	}

	progress := 0.0
	if b.end > b.start {
		progress = float64(n-b.start) / float64(b.end-b.start)
	}

	f := frame.NewFrame(b.pixels)
	f.Number = n
	f.Fill(b.background)
	for _, l := range b.layers {
		l.paint(f, n, progress)
	}
	return f, nil
}
