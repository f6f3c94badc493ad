package label

import (
	"fmt"
	"strconv"
	"strings"
)

// TapeWidth is the physical width of continuous tape in millimetres.
type TapeWidth int

const (
	Tape29mm TapeWidth = 29
	Tape38mm TapeWidth = 38
	Tape50mm TapeWidth = 50
	Tape62mm TapeWidth = 62
)

// Raster heights at 300 dpi. The label image height equals the printable
// width of the tape; its width becomes the label length.
var tapePixels = map[TapeWidth]int{
	Tape29mm: 306,
	Tape38mm: 413,
	Tape50mm: 554,
	Tape62mm: 696,
}

// referenceTape is the smallest tape; every size in a layout is scaled from it.
const referenceTape = Tape29mm

// TapeWidths returns the supported widths in ascending order.
func TapeWidths() []TapeWidth {
	return []TapeWidth{Tape29mm, Tape38mm, Tape50mm, Tape62mm}
}

func (t TapeWidth) Valid() bool {
	_, ok := tapePixels[t]
	return ok
}

// PixelHeight returns the raster height for t, or 0 if t is unsupported.
func (t TapeWidth) PixelHeight() int {
	return tapePixels[t]
}

// Scale is the ratio of t's pixel height to the 29mm tape
// (1.0, ~1.35, ~1.81, ~2.27). Unsupported widths scale as 1.0.
func (t TapeWidth) Scale() float64 {
	px, ok := tapePixels[t]
	if !ok {
		return 1.0
	}
	return float64(px) / float64(tapePixels[referenceTape])
}

func (t TapeWidth) String() string {
	return fmt.Sprintf("%dmm", int(t))
}

// ParseTapeWidth accepts "29", "29mm" or " 29 mm ".
func ParseTapeWidth(s string) (TapeWidth, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, "mm"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTapeWidth, s)
	}
	t := TapeWidth(n)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %dmm (supported: 29, 38, 50, 62)", ErrInvalidTapeWidth, n)
	}
	return t, nil
}

// scaled returns int(v*scale), truncating like the layout constants expect.
func (t TapeWidth) scaled(v float64) int {
	return int(v * t.Scale())
}
