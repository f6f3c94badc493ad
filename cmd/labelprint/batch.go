package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ichi0g0y/ql-label-printer/internal/label"
)

// batchRow is one CSV line: qr,text,copies
type batchRow struct {
	Line   int
	QRData string
	Text   string
	Copies int
}

// readBatchCSV parses qr,text,copies rows. A leading "qr,..." header, blank
// rows and # comments are skipped. More than label.MaxBatchSize rows is an error.
func readBatchCSV(r io.Reader) ([]batchRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var rows []batchRow
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "qr") {
				continue
			}
		}
		if blankRecord(rec) {
			continue
		}
		if len(rec) > 3 {
			return nil, fmt.Errorf("line %d: expected at most 3 fields (qr,text,copies), got %d", line, len(rec))
		}

		row := batchRow{Line: line, QRData: strings.TrimSpace(rec[0]), Copies: 1}
		if len(rec) > 1 {
			row.Text = strings.TrimSpace(rec[1])
		}
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(rec[2]))
			if err != nil || n < 1 || n > label.MaxCopies {
				return nil, fmt.Errorf("line %d: copies %q: %w", line, rec[2], label.ErrInvalidCopies)
			}
			row.Copies = n
		}
		rows = append(rows, row)
		if len(rows) > label.MaxBatchSize {
			return nil, label.ErrBatchTooLarge
		}
	}

	if len(rows) == 0 {
		return nil, label.ErrEmptyBatch
	}
	return rows, nil
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func runBatch(a *app, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var sf styleFlags
	var pf printerFlags
	sf.register(fs)
	pf.register(fs)
	file := fs.String("file", "", "CSV file with qr,text,copies rows (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *file == "" && fs.NArg() == 1 {
		*file = fs.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(a.stderr, "batch: -file is required")
		fs.Usage()
		return errUsage
	}

	var in io.Reader = os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	rows, err := readBatchCSV(in)
	if err != nil {
		return err
	}

	b, prefix, err := sf.batch()
	if err != nil {
		return err
	}
	for _, row := range rows {
		b.Items = append(b.Items, label.Request{
			Text:   label.FinalText(prefix, row.Text),
			QRData: row.QRData,
			Copies: row.Copies,
		})
	}
	return a.submit(b, pf)
}
