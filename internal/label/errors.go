package label

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTapeWidth = errors.New("invalid tape width")
	ErrEmptyLabel       = errors.New("label has no text and no QR payload")
	ErrFontLoad         = errors.New("failed to load font")
	ErrUnknownTemplate  = errors.New("unknown template")
	ErrInvalidCopies    = errors.New("copies must be between 1 and 10")
	ErrInvalidRequest   = errors.New("invalid label request")
	ErrBatchTooLarge    = fmt.Errorf("batch exceeds %d labels", MaxBatchSize)
	ErrEmptyBatch       = errors.New("batch has no labels")
)

// FontError reports which font file could not be used.
// errors.Is(err, ErrFontLoad) holds for every FontError.
type FontError struct {
	Path string
	Err  error
}

func (e *FontError) Error() string {
	return fmt.Sprintf("failed to load font %q: %v", e.Path, e.Err)
}

func (e *FontError) Unwrap() error { return e.Err }

func (e *FontError) Is(target error) bool { return target == ErrFontLoad }

// ItemError attributes a composition failure to one batch item.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("label %d: %v", e.Index+1, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
