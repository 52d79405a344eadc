package models

import "strings"

// Label classifies a task. Only the values below are accepted.
type Label string

const (
	LabelWork     Label = "work"
	LabelPersonal Label = "personal"
	LabelPriority Label = "priority"
	LabelShopping Label = "shopping"
	LabelHome     Label = "home"
)

// Labels lists the label vocabulary in prompt order.
var Labels = []Label{LabelWork, LabelPersonal, LabelPriority, LabelShopping, LabelHome}

// Valid reports whether l is part of the label vocabulary
func (l Label) Valid() bool {
	switch l {
	case LabelWork, LabelPersonal, LabelPriority, LabelShopping, LabelHome:
		return true
	default:
		return false
	}
}

// ParseLabel trims and lower-cases s and returns the matching label.
// The second result is false when s is not exactly one of the labels.
func ParseLabel(s string) (Label, bool) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", false
	}
	return l, true
}

// LabelNames returns the vocabulary as plain strings
func LabelNames() []string {
	names := make([]string, len(Labels))
	for i, l := range Labels {
		names[i] = string(l)
	}
	return names
}
