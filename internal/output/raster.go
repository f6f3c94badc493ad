package output

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/makeworld-the-better-one/dither/v2"
)

// Print head widths in dots.
const (
	headDots      = 720
	wideHeadDots  = 1296
	feedMarginDot = 35
)

// DefaultThreshold is the percentage of darkness above which a pixel prints.
const DefaultThreshold = 70.0

// RasterOptions controls monochrome conversion.
type RasterOptions struct {
	// Threshold in percent (0-100); 0 means DefaultThreshold.
	Threshold float64
	// Dither uses Floyd-Steinberg error diffusion instead of a hard threshold.
	Dither bool
	// NoCut disables the automatic cut after the label.
	NoCut bool
	// Model selects the head geometry; empty means DefaultModel.
	Model string
}

// continuous tape: printable dots and right-hand offset on the head.
type tapeGeometry struct {
	dots        int
	rightMargin int
}

var tapeGeometries = map[label.TapeWidth]tapeGeometry{
	label.Tape29mm: {dots: 306, rightMargin: 6},
	label.Tape38mm: {dots: 413, rightMargin: 12},
	label.Tape50mm: {dots: 554, rightMargin: 12},
	label.Tape62mm: {dots: 696, rightMargin: 12},
}

// EncodeRaster converts a composed label into the QL raster command stream.
// The label is rotated 90° clockwise so its height runs across the head,
// then each row is sent mirrored as one raster line of the model's head width.
func EncodeRaster(img image.Image, tape label.TapeWidth, opts RasterOptions) ([]byte, error) {
	geo, ok := tapeGeometries[tape]
	if !ok {
		return nil, fmt.Errorf("%w: %s", label.ErrInvalidTapeWidth, tape)
	}
	model, err := LookupModel(opts.Model)
	if err != nil {
		return nil, err
	}

	rotated := imaging.Rotate270(img)
	if rotated.Bounds().Dx() != geo.dots {
		rotated = imaging.Resize(rotated, geo.dots, 0, imaging.Lanczos)
	}
	mono := monochrome(rotated, opts)
	rows := mono.Bounds().Dy()

	var buf bytes.Buffer
	buf.Write(make([]byte, 200))              // invalidate
	buf.Write([]byte{0x1B, 0x40})             // initialize
	buf.Write([]byte{0x1B, 0x69, 0x53})       // status request
	buf.Write([]byte{0x1B, 0x69, 0x61, 0x01}) // raster mode

	// ESC i z: media and quality
	info := []byte{0x1B, 0x69, 0x7A, 0xCE, 0x0A, byte(tape), 0x00, 0, 0, 0, 0, 0x00, 0x00}
	binary.LittleEndian.PutUint32(info[7:11], uint32(rows))
	buf.Write(info)

	if opts.NoCut {
		buf.Write([]byte{0x1B, 0x69, 0x4D, 0x00})
		buf.Write([]byte{0x1B, 0x69, 0x4B, 0x00})
	} else {
		buf.Write([]byte{0x1B, 0x69, 0x4D, 0x40}) // autocut
		buf.Write([]byte{0x1B, 0x69, 0x41, 0x01}) // cut every label
		buf.Write([]byte{0x1B, 0x69, 0x4B, 0x08}) // cut at end
	}
	margin := []byte{0x1B, 0x69, 0x64, 0, 0}
	binary.LittleEndian.PutUint16(margin[3:], feedMarginDot)
	buf.Write(margin)

	offset := model.HeadDots - geo.dots - geo.rightMargin - model.ExtraOffset
	line := make([]byte, model.BytesPerLine())
	for y := 0; y < rows; y++ {
		clear(line)
		for x := 0; x < geo.dots; x++ {
			if !mono.black(x, y) {
				continue
			}
			dot := model.HeadDots - 1 - (offset + x) // mirrored
			line[dot/8] |= 0x80 >> (dot % 8)
		}
		buf.Write([]byte{0x67, 0x00, byte(len(line))})
		buf.Write(line)
	}

	buf.WriteByte(0x1A) // print with feed
	return buf.Bytes(), nil
}

// bitmap is a 1-bit view of the rotated label.
type bitmap struct {
	w, h int
	bits []bool
}

func (b *bitmap) Bounds() image.Rectangle { return image.Rect(0, 0, b.w, b.h) }

func (b *bitmap) black(x, y int) bool {
	if x < 0 || y < 0 || x >= b.w || y >= b.h {
		return false
	}
	return b.bits[y*b.w+x]
}

func monochrome(img *image.NRGBA, opts RasterOptions) *bitmap {
	gray := flatten(img)
	bounds := gray.Bounds()
	out := &bitmap{w: bounds.Dx(), h: bounds.Dy(), bits: make([]bool, bounds.Dx()*bounds.Dy())}

	if opts.Dither {
		d := dither.NewDitherer([]color.Color{color.Black, color.White})
		d.Matrix = dither.FloydSteinberg
		dithered := d.DitherCopy(gray)
		for y := 0; y < out.h; y++ {
			for x := 0; x < out.w; x++ {
				r, _, _, _ := dithered.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				out.bits[y*out.w+x] = r < 0x8000
			}
		}
		return out
	}

	threshold := opts.Threshold
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	// brother_ql: pixels darker than (100-threshold)% of white print black
	cut := uint8(min(255, max(0, int((100-threshold)/100*255))))
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			out.bits[y*out.w+x] = gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y < cut
		}
	}
	return out
}

// flatten composites img over white and converts it to 8-bit luminance.
func flatten(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			a := uint32(c.A)
			r := (uint32(c.R)*a + 255*(255-a)) / 255
			g := (uint32(c.G)*a + 255*(255-a)) / 255
			bl := (uint32(c.B)*a + 255*(255-a)) / 255
			gray.SetGray(x, y, color.Gray{Y: uint8((299*r + 587*g + 114*bl) / 1000)})
		}
	}
	return gray
}
