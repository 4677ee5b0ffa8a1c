package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

const solidScene = `
name: plain
pixels: 8
frames: {start: 10, end: 20}
background: "#000000"
layers:
  - kind: solid
    colour: "#ff0000"
    opacity: {from: 0, to: 1, ease: linear}
`

func TestParse_Solid(t *testing.T) {
	bp, err := Parse([]byte(solidScene))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bp.Name() != "plain" || bp.Pixels() != 8 {
		t.Errorf("name/pixels = %q/%d", bp.Name(), bp.Pixels())
	}
	if start, end := bp.Window(); start != 10 || end != 20 {
		t.Errorf("Window() = (%d, %d), want (10, 20)", start, end)
	}

	first, err := bp.Evaluate(10)
	if err != nil {
		t.Fatalf("Evaluate(10) error = %v", err)
	}
	if first.Number != 10 {
		t.Errorf("frame number = %d, want 10", first.Number)
	}
	if !first.Pixel(0).AlmostEqualRgb(colorful.Color{}) {
		t.Errorf("opacity 0 pixel = %v, want black", first.Pixel(0))
	}

	last, err := bp.Evaluate(20)
	if err != nil {
		t.Fatalf("Evaluate(20) error = %v", err)
	}
	if !last.Pixel(7).AlmostEqualRgb(colorful.Color{R: 1}) {
		t.Errorf("opacity 1 pixel = %v, want red", last.Pixel(7))
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "parsing"},
		{"unknown field", "pixels: 4\nframes: {start: 0, end: 1}\nspeed: 3\n", "speed"},
		{"no pixels", "frames: {start: 0, end: 1}\n", "pixels"},
		{"inverted frames", "pixels: 4\nframes: {start: 5, end: 1}\n", "after end"},
		{"bad background", "pixels: 4\nbackground: nope\n", "background"},
		{"unknown kind", "pixels: 4\nlayers: [{kind: plasma}]\n", "plasma"},
		{"unknown ease", "pixels: 4\nlayers: [{kind: solid, opacity: {from: 0, to: 1, ease: wobble}}]\n", "wobble"},
		{"value sequence", "pixels: 4\nlayers: [{kind: solid, opacity: [1, 2]}]\n", "number"},
		{"short gradient", "pixels: 4\nlayers: [{kind: gradient, stops: [{hue: 1, pos: 0}]}]\n", "two stops"},
		{"streak without every", "pixels: 4\nlayers: [{kind: streak}]\n", "every"},
		{"streak zero speed", "pixels: 4\nlayers: [{kind: streak, every: 3, speed: 0}]\n", "speed"},
		{"streak keyframed speed", "pixels: 4\nlayers: [{kind: streak, every: 3, speed: {from: 1, to: 4}}]\n", "plain number"},
		{"twinkle jitter above one", "pixels: 4\nlayers: [{kind: twinkle, jitter: 2}]\n", "jitter"},
		{"stripe without palette", "pixels: 4\nlayers: [{kind: stripe}]\n", "palette"},
		{"twinkle bad period", "pixels: 4\nlayers: [{kind: twinkle, period: 1}]\n", "period"},
		{"bad palette colour", "pixels: 4\nlayers: [{kind: stripe, palette: [\"#zzzzzz\"]}]\n", "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestEvaluate_OutOfRange(t *testing.T) {
	bp, err := Parse([]byte(solidScene))
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int64{9, 21, -1} {
		if _, err := bp.Evaluate(n); !errors.Is(err, ErrFrameOutOfRange) {
			t.Errorf("Evaluate(%d) error = %v, want ErrFrameOutOfRange", n, err)
		}
	}
}

func TestParseFile_Xmas(t *testing.T) {
	bp, err := ParseFile(filepath.Join("testdata", "xmas.yaml"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(bp.layers) != 3 {
		t.Fatalf("layers = %d, want 3", len(bp.layers))
	}
	for _, n := range []int64{0, 1, 150, 299} {
		f, err := bp.Evaluate(n)
		if err != nil {
			t.Fatalf("Evaluate(%d) error = %v", n, err)
		}
		if f.Len() != 500 {
			t.Errorf("frame %d has %d pixels", n, f.Len())
		}
	}
}

func TestParseFile_Missing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("ParseFile(missing) error = nil")
	}
}

func TestEvaluate_IsPure(t *testing.T) {
	bp, err := ParseFile(filepath.Join("testdata", "xmas.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	a, _ := bp.Evaluate(42)
	b, _ := bp.Evaluate(42)
	if a == b {
		t.Fatal("Evaluate returned the same frame twice")
	}
	for i := 0; i < a.Len(); i++ {
		if a.Pixel(i) != b.Pixel(i) {
			t.Fatalf("pixel %d differs between evaluations", i)
		}
	}

	// evaluating frames out of order or concurrently must not change results
	var wg sync.WaitGroup
	for n := int64(0); n < 50; n++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			if _, err := bp.Evaluate(n); err != nil {
				t.Error(err)
			}
		}(n)
	}
	wg.Wait()

	c, _ := bp.Evaluate(42)
	for i := 0; i < a.Len(); i++ {
		if a.Pixel(i) != c.Pixel(i) {
			t.Fatalf("pixel %d changed after concurrent evaluation", i)
		}
	}
}

func TestStripe_Scrolls(t *testing.T) {
	bp, err := Parse([]byte(`
pixels: 4
frames: {start: 0, end: 9}
layers:
  - kind: stripe
    palette: ["#ff0000", "#0000ff"]
    width: 2
    speed: 1
`))
	if err != nil {
		t.Fatal(err)
	}

	red := colorful.Color{R: 1}
	blue := colorful.Color{B: 1}

	f0, _ := bp.Evaluate(0)
	want0 := []colorful.Color{red, red, blue, blue}
	for i, c := range want0 {
		if !f0.Pixel(i).AlmostEqualRgb(c) {
			t.Errorf("frame 0 pixel %d = %v, want %v", i, f0.Pixel(i), c)
		}
	}

	f1, _ := bp.Evaluate(1)
	want1 := []colorful.Color{red, blue, blue, red}
	for i, c := range want1 {
		if !f1.Pixel(i).AlmostEqualRgb(c) {
			t.Errorf("frame 1 pixel %d = %v, want %v", i, f1.Pixel(i), c)
		}
	}
}

func TestTwinkle_FixedPositions(t *testing.T) {
	doc := `
pixels: 30
frames: {start: 0, end: 99}
layers:
  - kind: twinkle
    particles: 5
    seed: 3
    period: 4
`
	a, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	ta := a.layers[0].(*twinkle)
	tb := b.layers[0].(*twinkle)
	if len(ta.positions) != 5 {
		t.Fatalf("positions = %v", ta.positions)
	}
	for i := range ta.positions {
		if ta.positions[i] != tb.positions[i] {
			t.Errorf("position %d differs for the same seed", i)
		}
	}

	seen := map[int]bool{}
	for _, p := range ta.positions {
		if seen[p] {
			t.Errorf("position %d used twice", p)
		}
		seen[p] = true
	}

	lit := 0
	for n := int64(0); n < 4; n++ {
		f, _ := a.Evaluate(n)
		for i := 0; i < f.Len(); i++ {
			if !seen[i] && f.Pixel(i) != (colorful.Color{}) {
				t.Fatalf("frame %d lit pixel %d which is not a particle", n, i)
			}
			if f.Pixel(i) != (colorful.Color{}) {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("twinkle never lit a particle")
	}
}

func TestStreak_Moves(t *testing.T) {
	bp, err := Parse([]byte(`
pixels: 40
frames: {start: 0, end: 99}
layers:
  - kind: streak
    colour: "#ffffff"
    every: 100
    length: 2
    speed: 2
`))
	if err != nil {
		t.Fatal(err)
	}

	brightest := func(n int64) int {
		f, err := bp.Evaluate(n)
		if err != nil {
			t.Fatal(err)
		}
		best, at := -1.0, -1
		for i := 0; i < f.Len(); i++ {
			if _, _, l := f.Pixel(i).Hcl(); l > best {
				best, at = l, i
			}
		}
		return at
	}

	if a, b := brightest(5), brightest(10); b <= a {
		t.Errorf("streak head did not advance: frame 5 at %d, frame 10 at %d", a, b)
	}
}

func TestGradientTable_GetColor(t *testing.T) {
	g := GradientTable{{Hue: 0, Pos: 0}, {Hue: 100, Pos: 1}}
	h, _, _ := g.GetColor(0.5, 0.5, 0.5).Hcl()
	if h < 49 || h > 51 {
		t.Errorf("hue at 0.5 = %v, want ~50", h)
	}
	h, _, _ = g.GetColor(2, 0.5, 0.5).Hcl()
	if h < 99 || h > 101 {
		t.Errorf("hue past the end = %v, want ~100", h)
	}
}

func TestCompile_ValuesBuiltInGo(t *testing.T) {
	tests := []struct {
		name    string
		opacity Value
		want    colorful.Color
	}{
		{"zero value uses default", Value{}, colorful.Color{R: 1}},
		{"Const", Const(0), colorful.Color{}},
		{"Animate", Animate(0, 1, "OutCubic"), colorful.Color{R: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp, err := Compile(Document{
				Pixels: 2,
				Frames: Window{Start: 0, End: 10},
				Layers: []LayerSpec{{Kind: "solid", Colour: "#ff0000", Opacity: tt.opacity}},
			})
			if err != nil {
				t.Fatal(err)
			}
			f, err := bp.Evaluate(10)
			if err != nil {
				t.Fatal(err)
			}
			if !f.Pixel(0).AlmostEqualRgb(tt.want) {
				t.Errorf("pixel = %v, want %v", f.Pixel(0), tt.want)
			}
		})
	}
}

func TestCompile_LiteralValueIsAnimated(t *testing.T) {
	bp, err := Compile(Document{
		Pixels: 1,
		Frames: Window{Start: 0, End: 10},
		Layers: []LayerSpec{{Kind: "solid", Colour: "#ff0000", Opacity: Value{From: 1, To: 0}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	first, _ := bp.Evaluate(0)
	last, _ := bp.Evaluate(10)
	if !first.Pixel(0).AlmostEqualRgb(colorful.Color{R: 1}) || !last.Pixel(0).AlmostEqualRgb(colorful.Color{}) {
		t.Errorf("opacity 1->0 gave %v then %v", first.Pixel(0), last.Pixel(0))
	}
}

func TestCompile_UnknownEaseInGo(t *testing.T) {
	_, err := Compile(Document{
		Pixels: 1,
		Layers: []LayerSpec{{Kind: "stripe", Palette: []string{"#ffffff"}, Speed: Animate(0, 1, "wobble")}},
	})
	if err == nil || !strings.Contains(err.Error(), "wobble") {
		t.Errorf("Compile() error = %v, want unknown easing", err)
	}
}

func TestTwinkle_Jitter(t *testing.T) {
	const doc = `
pixels: 50
layers:
  - kind: twinkle
    colour: "#ff0000"
    particles: 10
    seed: 3
    jitter: %v
`
	plain, err := Parse([]byte(fmt.Sprintf(doc, 0)))
	if err != nil {
		t.Fatal(err)
	}
	jittered, err := Parse([]byte(fmt.Sprintf(doc, 0.5)))
	if err != nil {
		t.Fatal(err)
	}

	red := colorful.Color{R: 1}
	_, redChroma, _ := red.Hcl()
	pt := plain.layers[0].(*twinkle)
	jt := jittered.layers[0].(*twinkle)

	distinct := map[string]bool{}
	for i, c := range jt.colours {
		if !pt.colours[i].AlmostEqualRgb(red) {
			t.Errorf("unjittered colour %d = %v, want red", i, pt.colours[i])
		}
		if pt.positions[i] != jt.positions[i] {
			t.Errorf("jitter moved particle %d", i)
		}
		_, chroma, _ := c.Hcl()
		if chroma > redChroma+1e-3 || chroma < 0.5*redChroma-0.05 {
			t.Errorf("colour %d chroma = %v, want within [%v, %v]", i, chroma, 0.5*redChroma, redChroma)
		}
		distinct[c.Hex()] = true
	}
	if len(distinct) < 2 {
		t.Error("jitter gave every particle the same colour")
	}
}
