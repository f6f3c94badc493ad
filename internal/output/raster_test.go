package output

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ichi0g0y/ql-label-printer/internal/label"
)

// header: invalidate, init, status request, raster mode, ESC i z, cut x3, margin
const rasterHeaderLen = 200 + 2 + 3 + 4 + 13 + 12 + 5

const bytesPerLine = headDots / 8

func blankLabel(w int, tape label.TapeWidth) *image.NRGBA {
	return imaging.New(w, tape.PixelHeight(), color.White)
}

func TestEncodeRasterLayout(t *testing.T) {
	img := blankLabel(10, label.Tape29mm)
	data, err := EncodeRaster(img, label.Tape29mm, RasterOptions{})
	if err != nil {
		t.Fatalf("EncodeRaster error: %v", err)
	}

	want := rasterHeaderLen + 10*(3+bytesPerLine) + 1
	if len(data) != want {
		t.Fatalf("length got=%d want=%d", len(data), want)
	}
	if !bytes.Equal(data[200:202], []byte{0x1B, 0x40}) {
		t.Fatalf("missing ESC @ after invalidate")
	}

	info := data[209:222]
	if !bytes.Equal(info[:3], []byte{0x1B, 0x69, 0x7A}) {
		t.Fatalf("ESC i z got=% x", info[:3])
	}
	if info[4] != 0x0A || info[5] != 29 {
		t.Fatalf("media type/width got=%#x/%d want=0x0a/29", info[4], info[5])
	}
	if rows := binary.LittleEndian.Uint32(info[7:11]); rows != 10 {
		t.Fatalf("raster lines got=%d want=10", rows)
	}
	if data[len(data)-1] != 0x1A {
		t.Fatalf("last byte got=%#x want=0x1a", data[len(data)-1])
	}

	line := data[rasterHeaderLen : rasterHeaderLen+3+bytesPerLine]
	if !bytes.Equal(line[:3], []byte{0x67, 0x00, 0x5A}) {
		t.Fatalf("raster line prefix got=% x", line[:3])
	}
	if !bytes.Equal(line[3:], make([]byte, bytesPerLine)) {
		t.Fatalf("white label produced ink: % x", line[3:])
	}
}

func TestEncodeRasterPixelPosition(t *testing.T) {
	img := blankLabel(10, label.Tape29mm)
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})

	data, err := EncodeRaster(img, label.Tape29mm, RasterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// The top-left pixel ends up at the far end of the printable area on
	// the first line: head dot 719-(408+305) = 6.
	line := data[rasterHeaderLen+3 : rasterHeaderLen+3+bytesPerLine]
	want := make([]byte, bytesPerLine)
	want[0] = 0x02
	if !bytes.Equal(line, want) {
		t.Fatalf("first line got=% x", line)
	}
}

func TestEncodeRasterWideHeadModel(t *testing.T) {
	img := blankLabel(10, label.Tape29mm)
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})

	data, err := EncodeRaster(img, label.Tape29mm, RasterOptions{Model: "ql-1050"})
	if err != nil {
		t.Fatal(err)
	}
	const wideLine = wideHeadDots / 8
	if want := rasterHeaderLen + 10*(3+wideLine) + 1; len(data) != want {
		t.Fatalf("length got=%d want=%d", len(data), want)
	}
	line := data[rasterHeaderLen : rasterHeaderLen+3+wideLine]
	if !bytes.Equal(line[:3], []byte{0x67, 0x00, 0xA2}) {
		t.Fatalf("raster line prefix got=% x", line[:3])
	}
	// head dot 1295-(940+305) = 50
	want := make([]byte, wideLine)
	want[6] = 0x20
	if !bytes.Equal(line[3:], want) {
		t.Fatalf("first line got=% x", line[3:])
	}
}

func TestEncodeRasterUnknownModel(t *testing.T) {
	_, err := EncodeRaster(blankLabel(1, label.Tape29mm), label.Tape29mm, RasterOptions{Model: "QL-9000"})
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("got=%v want=%v", err, ErrUnknownModel)
	}
}

func TestLookupModel(t *testing.T) {
	m, err := LookupModel("")
	if err != nil || m.Name != DefaultModel || m.BytesPerLine() != 90 {
		t.Fatalf("default got=%+v err=%v", m, err)
	}
	m, err = LookupModel(" QL-820nwb ")
	if err != nil || m.HeadDots != headDots || m.ExtraOffset != 0 {
		t.Fatalf("QL-820NWB got=%+v err=%v", m, err)
	}
	if len(Models()) != len(models) {
		t.Fatalf("Models got=%d want=%d", len(Models()), len(models))
	}
}

func TestEncodeRasterThreshold(t *testing.T) {
	img := blankLabel(1, label.Tape29mm)
	img.SetNRGBA(0, 0, color.NRGBA{100, 100, 100, 255})

	inked := func(opts RasterOptions) bool {
		data, err := EncodeRaster(img, label.Tape29mm, opts)
		if err != nil {
			t.Fatal(err)
		}
		return !bytes.Equal(data[rasterHeaderLen+3:rasterHeaderLen+3+bytesPerLine], make([]byte, bytesPerLine))
	}
	if inked(RasterOptions{}) {
		t.Fatalf("mid gray printed at the default threshold")
	}
	if !inked(RasterOptions{Threshold: 20}) {
		t.Fatalf("mid gray not printed at threshold 20")
	}
}

func TestEncodeRasterDitherIsDeterministic(t *testing.T) {
	r, err := label.Compose(label.Request{Tape: label.Tape38mm, Text: "Dither", QRData: "x"})
	if err != nil {
		t.Fatal(err)
	}
	a, err := EncodeRaster(r.Image, r.Tape, RasterOptions{Dither: true})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := EncodeRaster(r.Image, r.Tape, RasterOptions{Dither: true})
	if !bytes.Equal(a, b) {
		t.Fatalf("dithered raster differs between runs")
	}
}

func TestEncodeRasterNoCut(t *testing.T) {
	data, err := EncodeRaster(blankLabel(2, label.Tape62mm), label.Tape62mm, RasterOptions{NoCut: true})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data[:rasterHeaderLen], []byte{0x1B, 0x69, 0x4D, 0x00}) {
		t.Fatalf("autocut not disabled")
	}
}

func TestEncodeRasterInvalidTape(t *testing.T) {
	_, err := EncodeRaster(blankLabel(2, label.Tape29mm), label.TapeWidth(45), RasterOptions{})
	if !errors.Is(err, label.ErrInvalidTapeWidth) {
		t.Fatalf("got=%v want=%v", err, label.ErrInvalidTapeWidth)
	}
}
