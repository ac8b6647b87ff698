package domain

import "strings"

// Label is a digest category.
type Label string

const (
	LabelEvents     Label = "Calendar (HEARINGS ONLY)"
	LabelCongress   Label = "Congress and the Administration"
	LabelInsurance  Label = "Health Insurance"
	LabelHealthTech Label = "Health Tech"
	LabelMedicaid   Label = "Medicaid"
	LabelMedicare   Label = "Medicare"
	LabelPharma     Label = "Pharmaceuticals and Medical Devices"
	LabelQuality    Label = "Quality and Innovation"
)

// LabelCatchAll receives anything the model output cannot be mapped to.
const LabelCatchAll = LabelQuality

var topicLabels = []Label{
	LabelCongress,
	LabelInsurance,
	LabelHealthTech,
	LabelMedicaid,
	LabelMedicare,
	LabelPharma,
	LabelQuality,
}

var labelAliases = map[string]Label{
	"pharmaceuticals":   LabelPharma,
	"devices":           LabelPharma,
	"pharma":            LabelPharma,
	"innovation":        LabelQuality,
	"quality":           LabelQuality,
	"medicare/medicaid": LabelMedicare,
	"congress":          LabelCongress,
	"administration":    LabelCongress,
	"health insurance":  LabelInsurance,
	"health tech":       LabelHealthTech,
}

// TopicLabels lists the labels a model may choose for non-hearing items.
func TopicLabels() []Label {
	out := make([]Label, len(topicLabels))
	copy(out, topicLabels)
	return out
}

// Labels lists every label in review order.
func Labels() []Label {
	return append([]Label{LabelEvents}, topicLabels...)
}

// IsKnown reports whether l belongs to the fixed label set.
func (l Label) IsKnown() bool {
	if l == LabelEvents {
		return true
	}
	for _, t := range topicLabels {
		if t == l {
			return true
		}
	}
	return false
}

// NormalizeLabel maps free text to the closed label set. Exact matches win,
// then aliases; anything else falls into the catch-all.
func NormalizeLabel(text string) Label {
	text = strings.TrimSpace(text)
	if text == "" {
		return LabelCatchAll
	}
	if Label(text) == LabelEvents {
		return LabelEvents
	}
	lower := strings.ToLower(text)
	for _, l := range topicLabels {
		if strings.ToLower(string(l)) == lower {
			return l
		}
	}
	if l, ok := labelAliases[lower]; ok {
		return l
	}
	return LabelCatchAll
}

// OrderLabels returns present labels with Events first, then the fixed list,
// then any unexpected labels in input order.
func OrderLabels(present []Label) []Label {
	seen := make(map[Label]bool, len(present))
	for _, l := range present {
		seen[l] = true
	}
	out := make([]Label, 0, len(present))
	for _, l := range Labels() {
		if seen[l] {
			out = append(out, l)
			delete(seen, l)
		}
	}
	for _, l := range present {
		if seen[l] {
			out = append(out, l)
			delete(seen, l)
		}
	}
	return out
}
