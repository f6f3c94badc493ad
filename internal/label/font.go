package label

import (
	"os"
	"sync"

	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultFontSize is the nominal size used when a request leaves FontSize at 0.
const DefaultFontSize = 100

var (
	defaultFontOnce sync.Once
	defaultFont     *opentype.Font
	defaultFontErr  error

	// readFontFile is swapped in tests.
	readFontFile = os.ReadFile
)

// loadFont parses the font at path, or the bundled Go Bold face when path is empty.
// The parsed font is read-only and safe to share across goroutines.
func loadFont(path string) (*opentype.Font, error) {
	if path == "" {
		defaultFontOnce.Do(func() {
			defaultFont, defaultFontErr = opentype.Parse(gobold.TTF)
		})
		if defaultFontErr != nil {
			return nil, &FontError{Path: "<builtin gobold>", Err: defaultFontErr}
		}
		return defaultFont, nil
	}

	data, err := readFontFile(path)
	if err != nil {
		return nil, &FontError{Path: path, Err: err}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, &FontError{Path: path, Err: err}
	}
	return f, nil
}

func newFace(f *opentype.Font, size int) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// lineHeight is ascent + descent, the vertical room a line of text needs.
func lineHeight(face font.Face) int {
	m := face.Metrics()
	return m.Ascent.Ceil() + m.Descent.Ceil()
}

// inkBounds returns the tight bounding box of s relative to the dot.
func inkBounds(face font.Face, s string) fixed.Rectangle26_6 {
	b, _ := font.BoundString(face, s)
	return b
}

func textWidth(face font.Face, s string) int {
	if s == "" {
		return 0
	}
	b := inkBounds(face, s)
	return (b.Max.X - b.Min.X).Ceil()
}

func inkHeight(face font.Face, s string) int {
	if s == "" {
		return 0
	}
	b := inkBounds(face, s)
	return (b.Max.Y - b.Min.Y).Ceil()
}

// fitFace binary-searches the largest size in [minSize, maxSize) for which
// fits reports true. If no size fits, minSize is used and a warning is
// logged since the text will be clipped.
func fitFace(f *opentype.Font, minSize, maxSize int, fits func(font.Face) bool) (font.Face, int, error) {
	if maxSize < minSize {
		maxSize = minSize
	}
	best := minSize
	lo, hi := minSize, maxSize
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		face, err := newFace(f, mid)
		if err != nil {
			return nil, 0, err
		}
		ok := fits(face)
		face.Close()
		if ok {
			best = mid
			lo = mid
		} else {
			hi = mid
		}
	}
	face, err := newFace(f, best)
	if err != nil {
		return nil, 0, err
	}
	if best == minSize && !fits(face) {
		logger.Warn("Text does not fit, using minimum font size", zap.Int("size", minSize))
	}
	return face, best, nil
}

// fitLineHeight fits a face whose line height is at most target.
func fitLineHeight(f *opentype.Font, minSize, maxSize, target int) (font.Face, error) {
	face, _, err := fitFace(f, minSize, maxSize, func(face font.Face) bool {
		return lineHeight(face) <= target
	})
	return face, err
}

// fitWidth fits a face whose rendering of s is at most target wide.
func fitWidth(f *opentype.Font, s string, minSize, maxSize, target int) (font.Face, error) {
	face, _, err := fitFace(f, minSize, maxSize, func(face font.Face) bool {
		return textWidth(face, s) <= target
	})
	return face, err
}
