package preview

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/matt-g-everett/ledahead/frame"
	"github.com/matt-g-everett/ledahead/prerender"
	"github.com/matt-g-everett/ledahead/stream"
)

// IsTerminal reports whether w is connected to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Collect plays up to count frames from p as fast as they are rendered.
// It returns early when p finishes.
func Collect(ctx context.Context, p *stream.Player, events <-chan prerender.FrameReady, count int) ([]*frame.Frame, error) {
	// Events can be dropped when the buffer is full, so poll as well.
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	var frames []*frame.Frame
	for len(frames) < count && !p.Done() {
		if f, ok := p.Next(); ok {
			frames = append(frames, f)
			continue
		}
		if p.Done() {
			break
		}

		select {
		case <-ctx.Done():
			return frames, ctx.Err()
		case <-events:
		case <-poll.C:
		}
	}
	return frames, nil
}

// Report writes one line per frame listing its pixel colours.
func Report(w io.Writer, name string, frames []*frame.Frame) error {
	if _, err := fmt.Fprintf(w, "%s: %d frames\n", name, len(frames)); err != nil {
		return err
	}
	for _, f := range frames {
		hex := make([]string, f.Len())
		for i := range hex {
			hex[i] = f.Pixel(i).Clamped().Hex()
		}
		if _, err := fmt.Fprintf(w, "%6d %s\n", f.Number, strings.Join(hex, " ")); err != nil {
			return err
		}
	}
	return nil
}

func statusLine(p *stream.Player, shown int) string {
	return fmt.Sprintf("  frame %d %s  shown %d  missed %d", p.Position(), p.Direction(), shown, p.Misses())
}
