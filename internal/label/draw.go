package label

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	inkColor    = color.NRGBA{0, 0, 0, 255}
	paperColor  = color.NRGBA{255, 255, 255, 255}
	borderColor = color.NRGBA{200, 200, 200, 255}
)

func newCanvas(w, h int) *image.NRGBA {
	if w < 1 {
		w = 1
	}
	return imaging.New(w, h, paperColor)
}

// drawText draws s with the left edge of its ink at x and the font's
// ascender line at y.
func drawText(dst draw.Image, face font.Face, s string, x, y int) {
	if s == "" {
		return
	}
	b := inkBounds(face, s)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(inkColor),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()).Sub(fixed.Point26_6{X: b.Min.X}),
	}
	d.DrawString(s)
}

// drawInk draws s so that its ink box starts exactly at (x, y).
func drawInk(dst draw.Image, face font.Face, s string, x, y int) {
	if s == "" {
		return
	}
	b := inkBounds(face, s)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(inkColor),
		Face: face,
		Dot:  fixed.P(x, y).Sub(b.Min),
	}
	d.DrawString(s)
}

// textBlock renders s on its own white image with pad pixels split around
// the ink. Rotated layouts draw here first and rotate the whole block.
func textBlock(face font.Face, s string, pad int) *image.NRGBA {
	w := textWidth(face, s) + pad
	h := inkHeight(face, s) + pad
	img := newCanvas(w, max(h, 1))
	drawInk(img, face, s, pad/2, pad/2)
	return img
}

// paste copies src onto dst with its top-left corner at (x, y).
// Anything outside dst is clipped.
func paste(dst *image.NRGBA, src image.Image, x, y int) {
	r := src.Bounds().Sub(src.Bounds().Min).Add(image.Pt(x, y))
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}

// drawBorder outlines the canvas with a light gray frame of width
// max(2, 2*scale) pixels.
func drawBorder(dst *image.NRGBA, tape TapeWidth) {
	bw := max(2, tape.scaled(2))
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	o := bw / 2
	src := image.NewUniform(borderColor)
	for _, r := range []image.Rectangle{
		image.Rect(o, o, w-o, o+bw),     // top
		image.Rect(o, h-o-bw, w-o, h-o), // bottom
		image.Rect(o, o, o+bw, h-o),     // left
		image.Rect(w-o-bw, o, w-o, h-o), // right
	} {
		draw.Draw(dst, r, src, image.Point{}, draw.Src)
	}
}

// centerOffset returns the y at which a line of face sits vertically
// centered in a box of height h.
func centerOffset(face font.Face, h int) int {
	m := face.Metrics()
	asc, desc := m.Ascent.Ceil(), m.Descent.Ceil()
	return (h-(asc+desc))/2 + desc/2
}
