package main

import (
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ichi0g0y/ql-label-printer/internal/env"
	"github.com/ichi0g0y/ql-label-printer/internal/history"
	"github.com/ichi0g0y/ql-label-printer/internal/label"
	"github.com/ichi0g0y/ql-label-printer/internal/output"
	"github.com/ichi0g0y/ql-label-printer/internal/settings"
	"github.com/ichi0g0y/ql-label-printer/internal/version"
)

func runTemplates(a *app, args []string) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQR\tNUMBER\tDESCRIPTION")
	for _, t := range label.Templates() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Name, yesNo(t.UsesQR), yesNo(t.UsesNumber), t.Description)
	}
	return tw.Flush()
}

func runSettings(a *app, args []string) error {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	initDefaults := fs.Bool("init", false, "store the default value of every unset key")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *initDefaults {
		if err := a.sm.InitializeDefaultSettings(); err != nil {
			return err
		}
	}

	// KEY=VALUE ... で更新
	if fs.NArg() > 0 {
		for _, kv := range fs.Args() {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("expected KEY=VALUE, got %q", kv)
			}
			key = strings.ToUpper(strings.TrimSpace(key))
			if err := a.sm.SetSetting(key, strings.TrimSpace(value)); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s=%s\n", key, strings.TrimSpace(value))
		}
		return nil
	}

	all, err := a.sm.GetAllSettings()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE\tDESCRIPTION")
	for _, key := range settings.Keys() {
		s := all[key]
		source := env.Value.Sources[key]
		if source == "" {
			source = "default"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", key, s.Value, source, s.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fstatus, err := a.sm.CheckFeatureStatus()
	if err != nil {
		return err
	}
	for _, m := range fstatus.MissingSettings {
		fmt.Fprintf(a.stdout, "missing: %s\n", m)
	}
	for _, w := range fstatus.Warnings {
		fmt.Fprintf(a.stdout, "warning: %s\n", w)
	}
	return nil
}

func runHistory(a *app, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	limit := fs.Int("limit", 20, "number of entries to show")
	pruneDays := fs.Int("prune-days", 0, "delete entries and archived images older than N days")
	id := fs.String("id", "", "show one entry in detail")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *id != "" {
		e, err := a.history.Get(*id)
		if err != nil {
			return err
		}
		return printHistoryEntry(a, e)
	}

	if *pruneDays > 0 {
		n, err := a.history.Prune(time.Now().AddDate(0, 0, -*pruneDays))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "pruned %d entries\n", n)
		return nil
	}

	entries, err := a.history.Recent(*limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tTAPE\tTEMPLATE\tTEXT\tQR\tPRINTED\tRESULT")
	for _, e := range entries {
		result := "ok"
		if !e.OK() {
			result = e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Tape, e.Template,
			e.Text, truncate(e.QRData, 32), e.Printed, e.Copies, result)
	}
	return tw.Flush()
}

func printHistoryEntry(a *app, e *history.Entry) error {
	result := "ok"
	if !e.OK() {
		result = e.Error
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", e.ID)
	fmt.Fprintf(tw, "batch:\t%s (label %d)\n", e.BatchID, e.LabelIndex+1)
	fmt.Fprintf(tw, "time:\t%s\n", e.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "template:\t%s\n", e.Template)
	fmt.Fprintf(tw, "tape:\t%s\n", e.Tape)
	fmt.Fprintf(tw, "text:\t%s\n", e.Text)
	fmt.Fprintf(tw, "qr:\t%s\n", e.QRData)
	fmt.Fprintf(tw, "number:\t%s\n", e.Number)
	fmt.Fprintf(tw, "printed:\t%d/%d\n", e.Printed, e.Copies)
	fmt.Fprintf(tw, "result:\t%s\n", result)
	fmt.Fprintf(tw, "printer:\t%s\n", e.Printer)
	fmt.Fprintf(tw, "image:\t%s\n", e.ImagePath)
	return tw.Flush()
}

func runPrinters(a *app, args []string) error {
	printers, err := output.GetSystemPrinters(a.ctx)
	if err != nil {
		return err
	}
	if len(printers) == 0 {
		fmt.Fprintln(a.stdout, "no CUPS printers found")
		return nil
	}
	for _, p := range printers {
		fmt.Fprintf(a.stdout, "cups://%s\t%s\n", p.Name, p.Status)
	}
	return nil
}

func runVersion(a *app, args []string) error {
	fmt.Fprintln(a.stdout, version.Full())
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
