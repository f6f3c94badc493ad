package label

import (
	"fmt"
	"strconv"
	"strings"
)

// Template selects one of the fixed label layouts.
type Template int

const (
	TemplateHorizontal         Template = 1 // QR left, text right, box watermark
	TemplateCompactVertical    Template = 2 // QR above text
	TemplateRotated            Template = 3 // QR left, text rotated 90°
	TemplateTextOnly           Template = 4
	TemplateVerticalText       Template = 5
	TemplateTextAboveQR        Template = 6
	TemplateHorizontalCentered Template = 7
	TemplateShelf              Template = 8 // vertical caption + big number
	TemplateStorage            Template = 9 // QR, caption below, big number
)

// DefaultTemplate is used when a request leaves Template unset.
const DefaultTemplate = TemplateHorizontal

// TemplateInfo describes a layout for listings and request validation.
type TemplateInfo struct {
	ID          Template
	Name        string
	Description string
	UsesQR      bool
	UsesNumber  bool
	// QRFraction is the QR side length as a fraction of the tape height.
	QRFraction float64
	Watermark  bool
}

var templates = []TemplateInfo{
	{ID: TemplateHorizontal, Name: "horizontal", Description: "QR code on the left, text on the right", UsesQR: true, QRFraction: 0.85, Watermark: true},
	{ID: TemplateCompactVertical, Name: "compact-vertical", Description: "QR code above the text", UsesQR: true, QRFraction: 0.70},
	{ID: TemplateRotated, Name: "rotated", Description: "QR code on the left, text rotated 90 degrees", UsesQR: true, QRFraction: 0.85},
	{ID: TemplateTextOnly, Name: "text-only", Description: "Text only, centered"},
	{ID: TemplateVerticalText, Name: "vertical-text", Description: "Text rotated 90 degrees, as large as the tape allows"},
	{ID: TemplateTextAboveQR, Name: "text-above-qr", Description: "Text above the QR code", UsesQR: true, QRFraction: 0.70},
	{ID: TemplateHorizontalCentered, Name: "horizontal-centered", Description: "Single line of text at half the tape height"},
	{ID: TemplateShelf, Name: "shelf", Description: "Vertical caption next to a large number", UsesNumber: true},
	{ID: TemplateStorage, Name: "storage", Description: "QR code with caption below, large number on the right", UsesQR: true, UsesNumber: true, QRFraction: 0.65},
}

// Templates returns all layouts ordered by ID.
func Templates() []TemplateInfo {
	out := make([]TemplateInfo, len(templates))
	copy(out, templates)
	return out
}

func (t Template) Info() (TemplateInfo, bool) {
	for _, info := range templates {
		if info.ID == t {
			return info, true
		}
	}
	return TemplateInfo{}, false
}

func (t Template) Valid() bool {
	_, ok := t.Info()
	return ok
}

func (t Template) String() string {
	if info, ok := t.Info(); ok {
		return info.Name
	}
	return "template(" + strconv.Itoa(int(t)) + ")"
}

// ParseTemplate accepts a numeric ID or a template name.
func ParseTemplate(s string) (Template, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		t := Template(n)
		if !t.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrUnknownTemplate, n)
		}
		return t, nil
	}
	for _, info := range templates {
		if info.Name == s {
			return info.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
}
