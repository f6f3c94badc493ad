package label

import (
	"fmt"
	"image"

	"golang.org/x/image/font/opentype"
)

// Rendered is a composed label ready for a printer driver.
// Image height always equals Tape.PixelHeight().
type Rendered struct {
	Image    *image.NRGBA
	Tape     TapeWidth
	Template Template
	Copies   int
	Text     string
	QRData   string
	Number   string
}

func (r *Rendered) Width() int  { return r.Image.Bounds().Dx() }
func (r *Rendered) Height() int { return r.Image.Bounds().Dy() }

// layout carries the resolved inputs every template draws from.
type layout struct {
	req    Request
	tape   TapeWidth
	h      int
	font   *opentype.Font
	qr     bool
	number bool
}

// minFont and maxFont bound the font size search for the main text.
func (l *layout) minFont() int { return l.tape.scaled(20) }
func (l *layout) maxFont() int { return l.tape.scaled(float64(l.req.FontSize)) }

type layoutFunc func(*layout) (*image.NRGBA, error)

var layouts = map[Template]layoutFunc{
	TemplateHorizontal:         layoutHorizontal,
	TemplateCompactVertical:    layoutCompactVertical,
	TemplateRotated:            layoutRotated,
	TemplateTextOnly:           layoutTextOnly,
	TemplateVerticalText:       layoutVerticalText,
	TemplateTextAboveQR:        layoutTextAboveQR,
	TemplateHorizontalCentered: layoutHorizontalCentered,
	TemplateShelf:              layoutShelf,
	TemplateStorage:            layoutStorage,
}

// Compose renders one label. The output depends only on req and the font
// file contents.
func Compose(req Request) (*Rendered, error) {
	norm, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	info, ok := norm.Template.Info()
	fn := layouts[norm.Template]
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTemplate, int(norm.Template))
	}

	l := &layout{
		req:    norm,
		tape:   norm.Tape,
		h:      norm.Tape.PixelHeight(),
		qr:     info.UsesQR && norm.QRData != "",
		number: info.UsesNumber && norm.Number != "",
	}
	if norm.Text == "" && !l.qr && !l.number {
		return nil, ErrEmptyLabel
	}

	l.font, err = loadFont(norm.FontPath)
	if err != nil {
		return nil, err
	}

	img, err := fn(l)
	if err != nil {
		return nil, fmt.Errorf("compose %s label: %w", norm.Template, err)
	}
	if img.Bounds().Dy() != l.h {
		return nil, fmt.Errorf("compose %s label: height %d does not match %s tape (%d)", norm.Template, img.Bounds().Dy(), norm.Tape, l.h)
	}

	r := &Rendered{
		Image:    img,
		Tape:     norm.Tape,
		Template: norm.Template,
		Copies:   norm.Copies,
		Text:     norm.Text,
		Number:   norm.Number,
	}
	if l.qr {
		r.QRData = norm.QRData
	}
	return r, nil
}

// ComposeBatch renders every item of b in order. The first failure aborts
// the batch and is reported as an *ItemError.
func ComposeBatch(b Batch) ([]*Rendered, error) {
	items, err := b.Resolve()
	if err != nil {
		return nil, err
	}
	out := make([]*Rendered, 0, len(items))
	for i, item := range items {
		r, err := Compose(item)
		if err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}
		out = append(out, r)
	}
	return out, nil
}
