package output

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"go.uber.org/zap"
)

// Job is one composed label and how many copies to print.
type Job struct {
	Image  image.Image
	Tape   label.TapeWidth
	Copies int
	// Name identifies the label in logs and history.
	Name string
}

// JobsFromRendered builds jobs for composed labels, keeping their copy counts.
func JobsFromRendered(rendered []*label.Rendered) []Job {
	jobs := make([]Job, 0, len(rendered))
	for _, r := range rendered {
		jobs = append(jobs, Job{Image: r.Image, Tape: r.Tape, Copies: r.Copies, Name: r.Text})
	}
	return jobs
}

// DriverError reports the driver failure that stopped a label.
type DriverError struct {
	Index int // label index in the batch
	Copy  int // 1-based copy that failed
	Err   error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("label %d copy %d: %v", e.Index+1, e.Copy, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// LabelResult is the outcome of one job.
type LabelResult struct {
	Index   int
	Name    string
	Copies  int
	Printed int
	Err     error
}

// OK reports whether every requested copy printed.
func (r LabelResult) OK() bool {
	return r.Err == nil && r.Printed == r.Copies
}

// BatchResult lists per-label outcomes in submission order.
type BatchResult struct {
	Labels    []LabelResult
	Succeeded int
	Failed    int
}

// Err joins every per-label error, or returns nil when all labels printed.
func (b *BatchResult) Err() error {
	var errs []error
	for _, l := range b.Labels {
		if l.Err != nil {
			errs = append(errs, l.Err)
		}
	}
	return errors.Join(errs...)
}

// Submitter sends jobs to a single printer one copy at a time.
type Submitter struct {
	driver Driver
	mu     sync.Mutex

	// OnResult is called after each label finishes, successful or not.
	OnResult func(Job, LabelResult)
}

func NewSubmitter(driver Driver) *Submitter {
	return &Submitter{driver: driver}
}

// Submit prints jobs in order. A driver failure skips the remaining copies
// of that label and the batch continues with the next one; nothing is
// retried. Invalid input is rejected before the first driver call.
// Cancellation is only observed between driver calls.
func (s *Submitter) Submit(ctx context.Context, jobs []Job) (*BatchResult, error) {
	if len(jobs) == 0 {
		return nil, label.ErrEmptyBatch
	}
	if len(jobs) > label.MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", label.ErrBatchTooLarge, len(jobs))
	}
	for i, job := range jobs {
		if job.Copies < 1 || job.Copies > label.MaxCopies {
			return nil, &label.ItemError{Index: i, Err: fmt.Errorf("%w: got %d", label.ErrInvalidCopies, job.Copies)}
		}
		if job.Image == nil {
			return nil, &label.ItemError{Index: i, Err: label.ErrEmptyLabel}
		}
		if !job.Tape.Valid() {
			return nil, &label.ItemError{Index: i, Err: fmt.Errorf("%w: %s", label.ErrInvalidTapeWidth, job.Tape)}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := &BatchResult{Labels: make([]LabelResult, 0, len(jobs))}
	for i, job := range jobs {
		lr := s.printJob(ctx, i, job)
		if lr.OK() {
			res.Succeeded++
		} else {
			res.Failed++
		}
		res.Labels = append(res.Labels, lr)
		if s.OnResult != nil {
			s.OnResult(job, lr)
		}
	}

	logger.Info("Batch submitted",
		zap.Int("labels", len(jobs)),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (s *Submitter) printJob(ctx context.Context, index int, job Job) LabelResult {
	lr := LabelResult{Index: index, Name: job.Name, Copies: job.Copies}
	log := logger.With(zap.Int("label", index+1), zap.String("name", job.Name))
	for c := 1; c <= job.Copies; c++ {
		if err := ctx.Err(); err != nil {
			lr.Err = &DriverError{Index: index, Copy: c, Err: err}
			return lr
		}
		if err := s.driver.PrintImage(ctx, job.Image, job.Tape); err != nil {
			lr.Err = &DriverError{Index: index, Copy: c, Err: err}
			log.Error("Label failed, skipping remaining copies",
				zap.Int("copy", c),
				zap.Int("copies", job.Copies),
				zap.Error(err))
			return lr
		}
		lr.Printed++
	}
	log.Info("Label printed", zap.Int("copies", job.Copies))
	return lr
}
