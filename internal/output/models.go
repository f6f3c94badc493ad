package output

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultModel is used when no printer model is configured.
const DefaultModel = "QL-700"

var ErrUnknownModel = errors.New("unknown printer model")

// Model is the raster geometry of one QL printer family.
type Model struct {
	Name     string
	HeadDots int
	// ExtraOffset shifts the printable area away from the right edge of the head.
	ExtraOffset int
}

// BytesPerLine is the length of one raster line for this head.
func (m Model) BytesPerLine() int { return m.HeadDots / 8 }

var models = []Model{
	{Name: "QL-500", HeadDots: headDots},
	{Name: "QL-550", HeadDots: headDots},
	{Name: "QL-560", HeadDots: headDots},
	{Name: "QL-570", HeadDots: headDots},
	{Name: "QL-580N", HeadDots: headDots},
	{Name: "QL-600", HeadDots: headDots},
	{Name: "QL-650TD", HeadDots: headDots},
	{Name: "QL-700", HeadDots: headDots},
	{Name: "QL-710W", HeadDots: headDots},
	{Name: "QL-720NW", HeadDots: headDots},
	{Name: "QL-800", HeadDots: headDots},
	{Name: "QL-810W", HeadDots: headDots},
	{Name: "QL-820NWB", HeadDots: headDots},
	{Name: "QL-1050", HeadDots: wideHeadDots, ExtraOffset: 44},
	{Name: "QL-1060N", HeadDots: wideHeadDots, ExtraOffset: 44},
	{Name: "QL-1100", HeadDots: wideHeadDots, ExtraOffset: 44},
	{Name: "QL-1110NWB", HeadDots: wideHeadDots, ExtraOffset: 44},
	{Name: "QL-1115NWB", HeadDots: wideHeadDots, ExtraOffset: 44},
}

// Models returns the supported model names.
func Models() []string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	return names
}

// LookupModel finds a model by name, ignoring case. An empty name selects DefaultModel.
func LookupModel(name string) (Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultModel
	}
	for _, m := range models {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
}
