package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ichi0g0y/ql-label-printer/internal/env"
	"github.com/ichi0g0y/ql-label-printer/internal/history"
	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/ichi0g0y/ql-label-printer/internal/output"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/paths"
	"github.com/ichi0g0y/ql-label-printer/internal/status"
	"go.uber.org/zap"
)

// optionalString remembers whether the flag was given at all,
// so "-prefix=" can clear a configured prefix.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(s string) error {
	o.value, o.set = s, true
	return nil
}

// styleFlags are shared by every command that composes labels.
type styleFlags struct {
	template string
	tape     string
	font     string
	fontSize int
	prefix   optionalString
}

func (f *styleFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.template, "template", "", "template id or name (default from settings)")
	fs.StringVar(&f.tape, "tape", "", "tape width in mm: 29, 38, 50, 62 (default from settings)")
	fs.StringVar(&f.font, "font", "", "TrueType/OpenType font file")
	fs.IntVar(&f.fontSize, "font-size", 0, "maximum font size (40-250)")
	fs.Var(&f.prefix, "prefix", "text prefix, e.g. Box (default from settings, empty to disable)")
}

// batch resolves the style against the loaded configuration.
func (f *styleFlags) batch() (label.Batch, string, error) {
	b := label.Batch{
		Template: env.Value.Template,
		Tape:     env.Value.TapeWidth,
		FontPath: env.Value.FontPath,
		FontSize: env.Value.FontSize,
	}
	var err error
	if f.template != "" {
		if b.Template, err = label.ParseTemplate(f.template); err != nil {
			return b, "", err
		}
	}
	if f.tape != "" {
		if b.Tape, err = label.ParseTapeWidth(f.tape); err != nil {
			return b, "", err
		}
	}
	if f.font != "" {
		b.FontPath = f.font
	}
	if f.fontSize != 0 {
		b.FontSize = f.fontSize
	}

	info, ok := b.Template.Info()
	if !ok {
		return b, "", label.ErrUnknownTemplate
	}
	prefix := env.Value.TextOnlyPrefix
	if info.UsesQR {
		prefix = env.Value.Prefix
	}
	if f.prefix.set {
		prefix = f.prefix.value
	}
	return b, strings.TrimSpace(prefix), nil
}

// printerFlags select where labels go.
type printerFlags struct {
	printer string
	dryRun  bool
}

func (f *printerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.printer, "printer", "", "printer identifier (default from settings)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "write PNG and raster files instead of printing")
}

type labelFlags struct {
	styleFlags
	text   string
	qr     string
	number string
	copies int
	count  int
}

func (f *labelFlags) register(fs *flag.FlagSet) {
	f.styleFlags.register(fs)
	fs.StringVar(&f.text, "text", "", "label text")
	fs.StringVar(&f.qr, "url", "", "QR code data")
	fs.StringVar(&f.number, "number", "", "large number for the shelf and storage templates")
	fs.IntVar(&f.copies, "copies", 1, "copies per label (1-10)")
	fs.IntVar(&f.count, "count", 1, "print N labels, incrementing the trailing number each time")
}

// requests expands -count into consecutive labels. Labels without text
// repeat as they are.
func (f *labelFlags) requests() (label.Batch, error) {
	b, prefix, err := f.batch()
	if err != nil {
		return b, err
	}
	if f.count < 1 || f.count > label.MaxBatchSize {
		return b, fmt.Errorf("-count must be between 1 and %d", label.MaxBatchSize)
	}
	info, _ := b.Template.Info()

	text, number := strings.TrimSpace(f.text), strings.TrimSpace(f.number)
	for i := 0; i < f.count; i++ {
		b.Items = append(b.Items, label.Request{
			Text:   label.FinalText(prefix, text),
			QRData: strings.TrimSpace(f.qr),
			Number: number,
			Copies: f.copies,
		})
		if info.UsesNumber && number != "" {
			number = label.Increment(number, false)
		} else if text != "" {
			text = label.Increment(text, prefix != "")
		}
	}
	return b, nil
}

func runPrint(a *app, args []string) error {
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var lf labelFlags
	var pf printerFlags
	lf.register(fs)
	pf.register(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	b, err := lf.requests()
	if err != nil {
		return err
	}
	return a.submit(b, pf)
}

func runPreview(a *app, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var lf labelFlags
	lf.register(fs)
	out := fs.String("out", "", "output PNG path (default: <data dir>/output/preview.png)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	b, err := lf.requests()
	if err != nil {
		return err
	}
	rendered, err := label.ComposeBatch(b)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = filepath.Join(paths.GetOutputDir(), "preview.png")
	}
	for i, r := range rendered {
		dst := path
		if len(rendered) > 1 {
			ext := filepath.Ext(path)
			dst = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
		}
		if err := imaging.Save(r.Image, dst); err != nil {
			return fmt.Errorf("failed to save preview: %w", err)
		}
		fmt.Fprintf(a.stdout, "%s  %dx%d  %s %s %q\n", dst, r.Width(), r.Height(), r.Tape, r.Template, r.Text)
	}
	return nil
}

// submit composes b and prints it, recording every label in the history.
func (a *app) submit(b label.Batch, pf printerFlags) error {
	rendered, err := label.ComposeBatch(b)
	if err != nil {
		return err
	}

	if pf.printer != "" {
		env.Value.PrinterIdentifier = pf.printer
	}
	if pf.dryRun {
		env.Value.DryRunMode = true
	}
	cfg, err := env.PrinterConfig()
	if err != nil {
		return err
	}

	target := cfg.Identifier
	if cfg.DryRun {
		target = "dir://" + cfg.OutputDir
	}

	var record func(output.Job, output.LabelResult)
	if env.Value.HistoryEnabled {
		batchID, err := history.GenerateID()
		if err != nil {
			return err
		}
		record = a.history.Recorder(batchID, rendered, target)
	}

	sub := output.NewSubmitter(output.NewPrinter(cfg))
	sub.OnResult = func(job output.Job, res output.LabelResult) {
		if record != nil {
			record(job, res)
		}
		a.reportResult(res)
	}

	logger.Info("Printing labels", zap.Int("labels", len(rendered)), zap.String("printer", target))
	res, err := sub.Submit(a.ctx, output.JobsFromRendered(rendered))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%d printed, %d failed\n", res.Succeeded, res.Failed)
	if res.Failed > 0 {
		a.reportPrinterStatus()
		return errLabelsFailed
	}
	return nil
}

// reportPrinterStatus prints the last known printer state after a failure.
func (a *app) reportPrinterStatus() {
	s := status.Snapshot()
	state := "disconnected"
	if s.Connected {
		state = "connected"
	}
	if s.LastError == "" {
		fmt.Fprintf(a.stdout, "printer: %s\n", state)
		return
	}
	fmt.Fprintf(a.stdout, "printer: %s, last error: %s\n", state, s.LastError)
}

func (a *app) reportResult(res output.LabelResult) {
	name := res.Name
	if name == "" {
		name = "(no text)"
	}
	if res.OK() {
		fmt.Fprintf(a.stdout, "ok    label %d %q (%d/%d)\n", res.Index+1, name, res.Printed, res.Copies)
		return
	}
	fmt.Fprintf(a.stdout, "FAIL  label %d %q (%d/%d): %v\n", res.Index+1, name, res.Printed, res.Copies, res.Err)
}
