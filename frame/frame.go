package frame

import (
	"encoding/binary"
	"errors"

	"github.com/lucasb-eyer/go-colorful"
)

// MaxPixels is the largest strip a Frame can describe on the wire.
const MaxPixels = 0xffff

// ErrShortData is returned when binary frame data is truncated.
var ErrShortData = errors.New("frame: short data")

// Frame represents a frame of RGB pixels to display on an ledrx device.
type Frame struct {
	Number int64
	pixels []colorful.Color
}

// NewFrame creates a new Frame with numPixels black pixels.
func NewFrame(numPixels int) *Frame {
	if numPixels < 0 {
		numPixels = 0
	}
	if numPixels > MaxPixels {
		numPixels = MaxPixels
	}

	f := new(Frame)
	f.pixels = make([]colorful.Color, numPixels)
	return f
}

// Len is the number of pixels in the frame.
func (f *Frame) Len() int {
	return len(f.pixels)
}

// Pixel returns the colour of pixel i.
func (f *Frame) Pixel(i int) colorful.Color {
	return f.pixels[i]
}

// SetPixel sets pixel i, ignoring indices off the strip.
func (f *Frame) SetPixel(i int, c colorful.Color) {
	if i < 0 || i >= len(f.pixels) {
		return
	}
	f.pixels[i] = c
}

// BlendPixel mixes c into pixel i by amount t in [0, 1].
func (f *Frame) BlendPixel(i int, c colorful.Color, t float64) {
	if i < 0 || i >= len(f.pixels) || t <= 0 {
		return
	}
	if t >= 1 {
		f.pixels[i] = c
		return
	}
	f.pixels[i] = f.pixels[i].BlendHcl(c, t).Clamped()
}

// Fill sets every pixel to c.
func (f *Frame) Fill(c colorful.Color) {
	for i := range f.pixels {
		f.pixels[i] = c
	}
}

// Clone returns an independent copy of the frame.
func (f *Frame) Clone() *Frame {
	out := NewFrame(len(f.pixels))
	out.Number = f.Number
	copy(out.pixels, f.pixels)
	return out
}

// Interpolate merges two frames. The shorter frame decides the length.
func (f *Frame) Interpolate(f2 *Frame, transitionPoint float64) *Frame {
	n := len(f.pixels)
	if len(f2.pixels) < n {
		n = len(f2.pixels)
	}

	out := NewFrame(n)
	out.Number = f.Number
	for i := 0; i < n; i++ {
		out.pixels[i] = f.pixels[i].BlendHcl(f2.pixels[i], transitionPoint).Clamped()
	}

	return out
}

// MarshalBinary converts a Frame into binary data.
func (f *Frame) MarshalBinary() (data []byte, err error) {
	data = make([]byte, 2, (len(f.pixels)*3)+2)
	binary.LittleEndian.PutUint16(data, uint16(len(f.pixels)))
	for _, p := range f.pixels {
		r, g, b := p.Clamped().RGB255()
		data = append(data, r, g, b)
	}

	return data, nil
}

// UnmarshalBinary reads data produced by MarshalBinary.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return ErrShortData
	}
	n := int(binary.LittleEndian.Uint16(data))
	if len(data) < 2+n*3 {
		return ErrShortData
	}

	f.pixels = make([]colorful.Color, n)
	for i := 0; i < n; i++ {
		o := 2 + i*3
		f.pixels[i] = colorful.Color{
			R: float64(data[o]) / 255.0,
			G: float64(data[o+1]) / 255.0,
			B: float64(data[o+2]) / 255.0,
		}
	}

	return nil
}
