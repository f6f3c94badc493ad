package label

import (
	"image"

	"github.com/disintegration/imaging"
)

// qrSide is the QR edge length for the template, or 0 without a QR.
func (l *layout) qrSide(fraction float64) int {
	if !l.qr {
		return 0
	}
	return int(float64(l.h) * fraction)
}

func (l *layout) pasteQR(dst *image.NRGBA, size, x, y int) error {
	if !l.qr || size <= 0 {
		return nil
	}
	qr, err := renderQR(l.req.QRData, size)
	if err != nil {
		return err
	}
	paste(dst, qr, x, y)
	return nil
}

// [QR] Text ........ [box]
func layoutHorizontal(l *layout) (*image.NRGBA, error) {
	pad := l.tape.scaled(15)
	textPad := pad * 3
	iconSize := l.tape.scaled(80)
	qrSize := l.qrSide(0.85)

	face, err := fitLineHeight(l.font, l.minFont(), l.maxFont(), l.h-2*pad)
	if err != nil {
		return nil, err
	}
	defer face.Close()
	tw := textWidth(face, l.req.Text)

	var w, textX int
	if l.qr {
		w = qrSize + tw + iconSize + 2*pad + 2*textPad
		textX = pad + qrSize + textPad
	} else {
		w = tw + iconSize + 3*pad + textPad
		textX = 2 * pad
	}

	canvas := newCanvas(w, l.h)
	if err := l.pasteQR(canvas, qrSize, pad, (l.h-qrSize)/2); err != nil {
		return nil, err
	}
	drawText(canvas, face, l.req.Text, textX, centerOffset(face, l.h))

	canvas, err = drawWatermark(canvas, iconSize, pad)
	if err != nil {
		return nil, err
	}
	drawBorder(canvas, l.tape)
	return canvas, nil
}

func layoutCompactVertical(l *layout) (*image.NRGBA, error) {
	return layoutStacked(l, false)
}

func layoutTextAboveQR(l *layout) (*image.NRGBA, error) {
	return layoutStacked(l, true)
}

// layoutStacked places QR and text in one centered column.
func layoutStacked(l *layout, textFirst bool) (*image.NRGBA, error) {
	pad := l.tape.scaled(15)
	gap := l.tape.scaled(30)
	qrSize := l.qrSide(0.70)
	hasText := l.req.Text != ""
	if !l.qr || !hasText {
		gap = 0
	}

	avail := l.h - 2*pad - qrSize - gap
	face, err := fitLineHeight(l.font, l.minFont(), l.maxFont(), avail)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	tw := textWidth(face, l.req.Text)
	th := 0
	if hasText {
		th = lineHeight(face)
	}
	w := max(qrSize, tw) + 2*pad
	y := (l.h - (qrSize + gap + th)) / 2

	canvas := newCanvas(w, l.h)
	qrY, textY := y, y+qrSize+gap
	if textFirst {
		textY, qrY = y, y+th+gap
	}
	if err := l.pasteQR(canvas, qrSize, (w-qrSize)/2, qrY); err != nil {
		return nil, err
	}
	drawText(canvas, face, l.req.Text, (w-tw)/2, textY)
	drawBorder(canvas, l.tape)
	return canvas, nil
}

// [QR] with text rotated 90° counter-clockwise, reading bottom to top.
func layoutRotated(l *layout) (*image.NRGBA, error) {
	pad := l.tape.scaled(15)
	rightPad := l.tape.scaled(40)
	qrSize := l.qrSide(0.85)

	var rotated *image.NRGBA
	if l.req.Text != "" {
		face, err := fitWidth(l.font, l.req.Text, l.minFont(), l.maxFont(), l.h-2*pad)
		if err != nil {
			return nil, err
		}
		rotated = imaging.Rotate90(textBlock(face, l.req.Text, l.tape.scaled(40)))
		face.Close()
	}
	rw, rh := 0, 0
	if rotated != nil {
		rw, rh = rotated.Bounds().Dx(), rotated.Bounds().Dy()
	}

	w := rw + 2*pad + rightPad
	textX := pad
	if l.qr {
		w += qrSize
		textX = pad + qrSize + pad
	}

	canvas := newCanvas(w, l.h)
	if err := l.pasteQR(canvas, qrSize, pad, (l.h-qrSize)/2); err != nil {
		return nil, err
	}
	if rotated != nil {
		paste(canvas, rotated, textX, (l.h-rh)/2)
	}
	drawBorder(canvas, l.tape)
	return canvas, nil
}

func layoutTextOnly(l *layout) (*image.NRGBA, error) {
	padH := l.tape.scaled(60)
	padV := l.tape.scaled(40)

	face, err := fitLineHeight(l.font, l.minFont(), l.maxFont(), l.h-2*padV)
	if err != nil {
		return nil, err
	}
	defer face.Close()
	tw := textWidth(face, l.req.Text)

	w := tw + 2*padH
	canvas := newCanvas(w, l.h)
	drawText(canvas, face, l.req.Text, (w-tw)/2, centerOffset(face, l.h))
	drawBorder(canvas, l.tape)
	return canvas, nil
}

// layoutVerticalText rotates the text so its length runs across the tape,
// filling as much of the tape width as the margins allow. FontSize is ignored.
func layoutVerticalText(l *layout) (*image.NRGBA, error) {
	margin := max(l.tape.scaled(15), int(float64(l.h)*0.05))
	textPad := max(l.tape.scaled(10), int(float64(l.h)*0.03))
	target := l.h - 2*margin - 2*textPad

	face, err := fitWidth(l.font, l.req.Text, l.tape.scaled(20), l.tape.scaled(500), target)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	rotated := imaging.Rotate90(textBlock(face, l.req.Text, 2*textPad))
	rw, rh := rotated.Bounds().Dx(), rotated.Bounds().Dy()

	canvas := newCanvas(rw+2*margin, l.h)
	paste(canvas, rotated, margin, (l.h-rh)/2)
	drawBorder(canvas, l.tape)
	return canvas, nil
}

// layoutHorizontalCentered sizes one line of text to about half the tape height.
func layoutHorizontalCentered(l *layout) (*image.NRGBA, error) {
	pad := l.tape.scaled(40)
	target := int(float64(l.h) * 0.5)

	face, err := fitLineHeight(l.font, l.tape.scaled(20), l.tape.scaled(500), target)
	if err != nil {
		return nil, err
	}
	defer face.Close()
	tw := textWidth(face, l.req.Text)

	w := tw + 2*pad
	canvas := newCanvas(w, l.h)
	drawText(canvas, face, l.req.Text, pad, centerOffset(face, l.h))
	drawBorder(canvas, l.tape)
	return canvas, nil
}

// [caption rotated clockwise] [NUMBER]
func layoutShelf(l *layout) (*image.NRGBA, error) {
	pad := l.tape.scaled(20)
	gap := l.tape.scaled(30)

	var caption *image.NRGBA
	if l.req.Text != "" {
		face, err := fitWidth(l.font, l.req.Text, l.tape.scaled(30), l.tape.scaled(200), l.h-2*pad)
		if err != nil {
			return nil, err
		}
		caption = imaging.Rotate270(textBlock(face, l.req.Text, l.tape.scaled(40)))
		face.Close()
	}

	numFace, err := fitLineHeight(l.font, l.tape.scaled(80), l.tape.scaled(500), int(float64(l.h)*0.7))
	if err != nil {
		return nil, err
	}
	defer numFace.Close()
	nw := textWidth(numFace, l.req.Number)

	cw, ch := 0, 0
	if caption != nil {
		cw, ch = caption.Bounds().Dx(), caption.Bounds().Dy()
	}
	if caption == nil || nw == 0 {
		gap = 0
	}

	canvas := newCanvas(pad+cw+gap+nw+pad, l.h)
	if caption != nil {
		paste(canvas, caption, pad, (l.h-ch)/2)
	}
	drawText(canvas, numFace, l.req.Number, pad+cw+gap, centerOffset(numFace, l.h))
	drawBorder(canvas, l.tape)
	return canvas, nil
}

// [QR over caption] [NUMBER]
func layoutStorage(l *layout) (*image.NRGBA, error) {
	pad := l.tape.scaled(20)
	gap := l.tape.scaled(40)
	qrSize := l.qrSide(0.65)

	avail := float64(l.h) * 0.3
	if l.qr {
		avail = float64(l.h - qrSize - 2*pad)
	}
	captionTarget := int(min(avail*0.8, float64(l.h)*0.2))

	capFace, err := fitLineHeight(l.font, l.tape.scaled(20), l.tape.scaled(150), captionTarget)
	if err != nil {
		return nil, err
	}
	defer capFace.Close()
	cw := textWidth(capFace, l.req.Text)
	ch := 0
	if l.req.Text != "" {
		ch = lineHeight(capFace)
	}

	numFace, err := fitLineHeight(l.font, l.tape.scaled(100), l.tape.scaled(600), int(float64(l.h)*0.75))
	if err != nil {
		return nil, err
	}
	defer numFace.Close()
	nw := textWidth(numFace, l.req.Number)
	if nw == 0 {
		gap = 0
	}

	left := max(qrSize, cw)
	canvas := newCanvas(pad+left+gap+nw+pad, l.h)

	top := (l.h - (qrSize + ch)) / 2
	if err := l.pasteQR(canvas, qrSize, pad+(left-qrSize)/2, top); err != nil {
		return nil, err
	}
	drawText(canvas, capFace, l.req.Text, pad+(left-cw)/2, top+qrSize)
	drawText(canvas, numFace, l.req.Number, pad+left+gap, centerOffset(numFace, l.h))
	drawBorder(canvas, l.tape)
	return canvas, nil
}
