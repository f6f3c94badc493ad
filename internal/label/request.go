package label

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxBatchSize = 10
	MaxCopies    = 10
	MinFontSize  = 40
	MaxFontSize  = 250
)

// Request is everything needed to compose one label.
type Request struct {
	Template Template `validate:"omitempty,min=1,max=9"`
	Tape     TapeWidth
	Text     string `validate:"max=500"`
	QRData   string `validate:"max=2000"`
	// Number is the large figure printed by the shelf and storage layouts.
	Number   string `validate:"max=16"`
	FontPath string
	FontSize int `validate:"omitempty,min=40,max=250"`
	Copies   int `validate:"omitempty,min=1,max=10"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize fills defaults and validates r. Tape width is checked first so
// an unsupported tape is always reported as ErrInvalidTapeWidth.
func (r Request) Normalize() (Request, error) {
	if !r.Tape.Valid() {
		return r, fmt.Errorf("%w: %s", ErrInvalidTapeWidth, r.Tape)
	}
	if err := validate.Struct(r); err != nil {
		return r, translateValidation(err)
	}
	if r.Template == 0 {
		r.Template = DefaultTemplate
	}
	if r.FontSize == 0 {
		r.FontSize = DefaultFontSize
	}
	if r.Copies == 0 {
		r.Copies = 1
	}
	r.Text = strings.TrimSpace(r.Text)
	r.QRData = strings.TrimSpace(r.QRData)
	r.Number = strings.TrimSpace(r.Number)
	return r, nil
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Copies":
		return fmt.Errorf("%w: got %v", ErrInvalidCopies, fe.Value())
	case "Template":
		return fmt.Errorf("%w: %v", ErrUnknownTemplate, fe.Value())
	case "FontSize":
		return fmt.Errorf("%w: font size must be between %d and %d, got %v", ErrInvalidRequest, MinFontSize, MaxFontSize, fe.Value())
	default:
		return fmt.Errorf("%w: %s failed %s=%s", ErrInvalidRequest, fe.Field(), fe.Tag(), fe.Param())
	}
}

// Batch is a list of labels sharing template, tape and font unless an item
// overrides them.
type Batch struct {
	Template Template
	Tape     TapeWidth
	FontPath string
	FontSize int
	Items    []Request
}

// Resolve applies batch defaults to every item and validates each one.
func (b Batch) Resolve() ([]Request, error) {
	if len(b.Items) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(b.Items) > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrBatchTooLarge, len(b.Items))
	}
	out := make([]Request, 0, len(b.Items))
	for i, item := range b.Items {
		if item.Template == 0 {
			item.Template = b.Template
		}
		if item.Tape == 0 {
			item.Tape = b.Tape
		}
		if item.FontPath == "" {
			item.FontPath = b.FontPath
		}
		if item.FontSize == 0 {
			item.FontSize = b.FontSize
		}
		norm, err := item.Normalize()
		if err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}
		out = append(out, norm)
	}
	return out, nil
}
