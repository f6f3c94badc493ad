package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/ichi0g0y/ql-label-printer/internal/output"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// Entry is one printed (or attempted) label.
type Entry struct {
	ID         string
	BatchID    string
	LabelIndex int
	Template   label.Template
	Tape       label.TapeWidth
	Text       string
	QRData     string
	Number     string
	Copies     int
	Printed    int
	Error      string
	ImagePath  string
	Printer    string
	CreatedAt  time.Time
}

// OK reports whether every requested copy printed.
func (e Entry) OK() bool {
	return e.Error == "" && e.Printed == e.Copies
}

type Store struct {
	db         *sql.DB
	archiveDir string
	now        func() time.Time
}

// NewStore records into db. archiveDir keeps a PNG per label; empty disables it.
func NewStore(db *sql.DB, archiveDir string) *Store {
	return &Store{db: db, archiveDir: archiveDir, now: time.Now}
}

// GenerateID creates a new nanoid
func GenerateID() (string, error) {
	return gonanoid.New()
}

// Record stores the outcome of one label of batchID.
func (s *Store) Record(batchID string, r *label.Rendered, res output.LabelResult, printer string) (*Entry, error) {
	if r == nil {
		return nil, label.ErrEmptyLabel
	}
	id, err := GenerateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	e := &Entry{
		ID:         id,
		BatchID:    batchID,
		LabelIndex: res.Index,
		Template:   r.Template,
		Tape:       r.Tape,
		Text:       r.Text,
		QRData:     r.QRData,
		Number:     r.Number,
		Copies:     res.Copies,
		Printed:    res.Printed,
		Printer:    printer,
		CreatedAt:  s.now().UTC(),
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}

	if s.archiveDir != "" && r.Image != nil {
		if err := os.MkdirAll(s.archiveDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(s.archiveDir, id+".png")
		if err := imaging.Save(r.Image, path); err != nil {
			return nil, fmt.Errorf("failed to archive label image: %w", err)
		}
		e.ImagePath = path
	}

	_, err = s.db.Exec(`
		INSERT INTO print_history (id, batch_id, label_index, template, tape_mm, text, qr_data, number, copies, printed, error, image_path, printer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BatchID, e.LabelIndex, int(e.Template), int(e.Tape), e.Text, e.QRData, e.Number,
		e.Copies, e.Printed, e.Error, e.ImagePath, e.Printer, e.CreatedAt,
	)
	if err != nil {
		if e.ImagePath != "" {
			_ = os.Remove(e.ImagePath)
		}
		return nil, fmt.Errorf("failed to insert print history: %w", err)
	}

	logger.Debug("Print history recorded",
		zap.String("id", e.ID),
		zap.String("batch", batchID),
		zap.Int("index", e.LabelIndex),
		zap.Bool("ok", e.OK()))
	return e, nil
}

// Recorder returns a Submitter.OnResult hook that records every label of one batch.
// rendered is indexed by job position. Failures are logged, never returned.
func (s *Store) Recorder(batchID string, rendered []*label.Rendered, printer string) func(output.Job, output.LabelResult) {
	return func(_ output.Job, res output.LabelResult) {
		if res.Index < 0 || res.Index >= len(rendered) {
			logger.Warn("Print result out of range", zap.Int("index", res.Index))
			return
		}
		if _, err := s.Record(batchID, rendered[res.Index], res, printer); err != nil {
			logger.Error("Failed to record print history", zap.Int("index", res.Index), zap.Error(err))
		}
	}
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, batch_id, label_index, template, tape_mm, text, qr_data, number, copies, printed, error, image_path, printer, created_at
		FROM print_history
		ORDER BY created_at DESC, label_index DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query print history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var template, tape int
		if err := rows.Scan(&e.ID, &e.BatchID, &e.LabelIndex, &template, &tape, &e.Text, &e.QRData, &e.Number,
			&e.Copies, &e.Printed, &e.Error, &e.ImagePath, &e.Printer, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan print history: %w", err)
		}
		e.Template = label.Template(template)
		e.Tape = label.TapeWidth(tape)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Get looks up one entry by id.
func (s *Store) Get(id string) (*Entry, error) {
	var e Entry
	var template, tape int
	err := s.db.QueryRow(`
		SELECT id, batch_id, label_index, template, tape_mm, text, qr_data, number, copies, printed, error, image_path, printer, created_at
		FROM print_history WHERE id = ?`, id).Scan(
		&e.ID, &e.BatchID, &e.LabelIndex, &template, &tape, &e.Text, &e.QRData, &e.Number,
		&e.Copies, &e.Printed, &e.Error, &e.ImagePath, &e.Printer, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history entry %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	e.Template = label.Template(template)
	e.Tape = label.TapeWidth(tape)
	return &e, nil
}

// Prune deletes entries older than before together with their archived images.
func (s *Store) Prune(before time.Time) (int, error) {
	rows, err := s.db.Query(`SELECT image_path FROM print_history WHERE created_at < ? AND image_path != ''`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to query old history: %w", err)
	}
	var images []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		images = append(images, p)
	}
	rows.Close()

	res, err := s.db.Exec(`DELETE FROM print_history WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old history: %w", err)
	}
	n, _ := res.RowsAffected()

	for _, p := range images {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete archived label", zap.String("path", p), zap.Error(err))
		}
	}

	logger.Info("Print history pruned", zap.Int64("rows", n), zap.Int("images", len(images)))
	return int(n), nil
}
