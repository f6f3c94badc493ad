package label

import (
	"errors"
	"testing"
)

func TestRequestNormalizeDefaults(t *testing.T) {
	r, err := Request{Tape: Tape29mm, Text: "  hello  "}.Normalize()
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if r.Template != DefaultTemplate || r.FontSize != DefaultFontSize || r.Copies != 1 {
		t.Fatalf("defaults got template=%d font=%d copies=%d", r.Template, r.FontSize, r.Copies)
	}
	if r.Text != "hello" {
		t.Fatalf("text got=%q want=%q", r.Text, "hello")
	}
}

func TestRequestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"tape 45mm", Request{Tape: 45, Text: "x"}, ErrInvalidTapeWidth},
		{"tape unset", Request{Text: "x"}, ErrInvalidTapeWidth},
		{"copies 11", Request{Tape: Tape29mm, Text: "x", Copies: 11}, ErrInvalidCopies},
		{"copies negative", Request{Tape: Tape29mm, Text: "x", Copies: -1}, ErrInvalidCopies},
		{"template 10", Request{Tape: Tape29mm, Text: "x", Template: 10}, ErrUnknownTemplate},
		{"font too small", Request{Tape: Tape29mm, Text: "x", FontSize: 39}, ErrInvalidRequest},
		{"font too large", Request{Tape: Tape29mm, Text: "x", FontSize: 251}, ErrInvalidRequest},
		// tape is reported before anything else
		{"tape and copies", Request{Tape: 12, Text: "x", Copies: 99}, ErrInvalidTapeWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Normalize()
			if !errors.Is(err, tt.want) {
				t.Fatalf("got=%v want=%v", err, tt.want)
			}
		})
	}
}

func TestBatchResolve(t *testing.T) {
	b := Batch{Template: TemplateRotated, Tape: Tape38mm, FontSize: 80}
	if _, err := b.Resolve(); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("empty batch got=%v want=%v", err, ErrEmptyBatch)
	}

	for i := 0; i < MaxBatchSize; i++ {
		b.Items = append(b.Items, Request{Text: "x"})
	}
	items, err := b.Resolve()
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	for _, it := range items {
		if it.Template != TemplateRotated || it.Tape != Tape38mm || it.FontSize != 80 {
			t.Fatalf("batch defaults not applied: %+v", it)
		}
	}

	b.Items = append(b.Items, Request{Text: "eleven"})
	if _, err := b.Resolve(); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("11 items got=%v want=%v", err, ErrBatchTooLarge)
	}
}

func TestBatchResolveItemError(t *testing.T) {
	b := Batch{Tape: Tape29mm, Items: []Request{{Text: "ok"}, {Text: "bad", Copies: 20}}}
	_, err := b.Resolve()
	var ie *ItemError
	if !errors.As(err, &ie) || ie.Index != 1 {
		t.Fatalf("got=%v want ItemError index 1", err)
	}
	if !errors.Is(err, ErrInvalidCopies) {
		t.Fatalf("got=%v want=%v", err, ErrInvalidCopies)
	}
}

func TestParseTapeWidth(t *testing.T) {
	for in, want := range map[string]TapeWidth{"29": Tape29mm, "38mm": Tape38mm, " 50 mm ": Tape50mm, "62MM": Tape62mm} {
		got, err := ParseTapeWidth(in)
		if err != nil || got != want {
			t.Fatalf("ParseTapeWidth(%q) got=%v,%v want=%v", in, got, err, want)
		}
	}
	for _, in := range []string{"45", "", "wide"} {
		if _, err := ParseTapeWidth(in); !errors.Is(err, ErrInvalidTapeWidth) {
			t.Fatalf("ParseTapeWidth(%q) got=%v want=%v", in, err, ErrInvalidTapeWidth)
		}
	}
}

func TestTapeScale(t *testing.T) {
	if s := Tape29mm.Scale(); s != 1.0 {
		t.Fatalf("29mm scale got=%v want=1", s)
	}
	if s := Tape62mm.Scale(); s < 2.27 || s > 2.28 {
		t.Fatalf("62mm scale got=%v want≈2.27", s)
	}
}

func TestParseTemplate(t *testing.T) {
	got, err := ParseTemplate("3")
	if err != nil || got != TemplateRotated {
		t.Fatalf("ParseTemplate(3) got=%v,%v", got, err)
	}
	got, err = ParseTemplate("Storage")
	if err != nil || got != TemplateStorage {
		t.Fatalf("ParseTemplate(Storage) got=%v,%v", got, err)
	}
	if _, err := ParseTemplate("0"); !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("ParseTemplate(0) got=%v", err)
	}
}

func TestFinalText(t *testing.T) {
	tests := []struct{ prefix, text, want string }{
		{"", "Cables", "Cables"},
		{"Box", "12", "Box 12"},
		{"Box", "", ""},
		{" Shelf ", " 3 ", "Shelf 3"},
	}
	for _, tt := range tests {
		if got := FinalText(tt.prefix, tt.text); got != tt.want {
			t.Fatalf("FinalText(%q, %q) got=%q want=%q", tt.prefix, tt.text, got, tt.want)
		}
	}
}

func TestIncrement(t *testing.T) {
	tests := []struct {
		text      string
		hasPrefix bool
		want      string
	}{
		{"9", true, "10"},
		{"Box 9", false, "Box 10"},
		{"A-07", false, "A-8"},
		{"Cables", false, "Cables 2"},
		{"abc", true, "1"},
		{"", true, "1"},
		{"", false, ""},
		{"  ", false, ""},
	}
	for _, tt := range tests {
		if got := Increment(tt.text, tt.hasPrefix); got != tt.want {
			t.Fatalf("Increment(%q, %v) got=%q want=%q", tt.text, tt.hasPrefix, got, tt.want)
		}
	}
}
