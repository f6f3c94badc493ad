package history

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/ichi0g0y/ql-label-printer/internal/localdb"
	"github.com/ichi0g0y/ql-label-printer/internal/output"
)

var historyColumns = []string{"id", "batch_id", "label_index", "template", "tape_mm", "text", "qr_data", "number",
	"copies", "printed", "error", "image_path", "printer", "created_at"}

func testRendered(text string) *label.Rendered {
	return &label.Rendered{
		Image:    image.NewNRGBA(image.Rect(0, 0, 40, 306)),
		Tape:     label.Tape29mm,
		Template: label.TemplateHorizontal,
		Copies:   2,
		Text:     text,
		QRData:   "https://example.com/box/18",
	}
}

func TestRecordInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO print_history").
		WithArgs(sqlmock.AnyArg(), "batch1", 0, 1, 29, "Box 18", "https://example.com/box/18", "",
			2, 2, "", "", "dir:///tmp/out", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := NewStore(db, "")
	e, err := s.Record("batch1", testRendered("Box 18"), output.LabelResult{Index: 0, Copies: 2, Printed: 2}, "dir:///tmp/out")
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if e.ID == "" || !e.OK() {
		t.Fatalf("entry got=%+v", e)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecordInsertErrorRemovesImage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO print_history").WillReturnError(errors.New("disk I/O error"))

	dir := t.TempDir()
	s := NewStore(db, dir)
	res := output.LabelResult{Index: 1, Copies: 2, Printed: 1, Err: errors.New("paper jam")}
	if _, err := s.Record("batch1", testRendered("Box 19"), res, "usb://0x04f9:0x2042"); err == nil {
		t.Fatalf("expected insert error")
	}
	files, _ := os.ReadDir(dir)
	if len(files) != 0 {
		t.Fatalf("archived image should be removed, got %d files", len(files))
	}
}

func TestRecentQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM print_history").WithArgs(5).WillReturnError(errors.New("database is locked"))

	if _, err := NewStore(db, "").Recent(5); err == nil {
		t.Fatalf("expected query error")
	}
}

func TestRecentScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(historyColumns).
		AddRow("a", "b1", 1, 9, 62, "", "q", "18", 1, 0, "label 2 copy 1: printer not found", "", "usb://0x04f9:0x2042", now).
		AddRow("b", "b1", 0, 1, 62, "Box", "q", "", 1, 1, "", "", "usb://0x04f9:0x2042", now)
	mock.ExpectQuery("SELECT (.+) FROM print_history").WithArgs(20).WillReturnRows(rows)

	got, err := NewStore(db, "").Recent(0)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len got=%d want=2", len(got))
	}
	if got[0].Template != label.TemplateStorage || got[0].Tape != label.Tape62mm || got[0].OK() {
		t.Fatalf("first got=%+v", got[0])
	}
	if !got[1].OK() {
		t.Fatalf("second should be ok: %+v", got[1])
	}
}

func TestStoreWithSQLite(t *testing.T) {
	dir := t.TempDir()
	db, err := localdb.SetupDB(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer localdb.Close()

	s := NewStore(db, filepath.Join(dir, "output"))
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	rendered := []*label.Rendered{testRendered("Box 1"), testRendered("Box 2")}
	hook := s.Recorder("batch", rendered, "dir:///tmp")
	hook(output.Job{}, output.LabelResult{Index: 0, Copies: 2, Printed: 2})
	hook(output.Job{}, output.LabelResult{Index: 1, Copies: 2, Printed: 0, Err: output.ErrPrinterNotFound})
	hook(output.Job{}, output.LabelResult{Index: 7})

	got, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len got=%d want=2", len(got))
	}
	if got[0].Text != "Box 2" || got[0].Error == "" {
		t.Fatalf("newest got=%+v", got[0])
	}
	if _, err := os.Stat(got[1].ImagePath); err != nil {
		t.Fatalf("archived image missing: %v", err)
	}

	one, err := s.Get(got[1].ID)
	if err != nil || one.Text != "Box 1" {
		t.Fatalf("Get got=%+v err=%v", one, err)
	}

	n, err := s.Prune(base.Add(90 * time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("Prune got=%d err=%v want=1", n, err)
	}
	if _, err := os.Stat(got[1].ImagePath); !os.IsNotExist(err) {
		t.Fatalf("pruned image should be deleted, stat err=%v", err)
	}
	if rest, _ := s.Recent(10); len(rest) != 1 {
		t.Fatalf("after prune got=%d want=1", len(rest))
	}
}
