package domain

import "fmt"

// Stage is a step of the curation wizard.
type Stage string

const (
	StageStart      Stage = "start"
	StageGmail      Stage = "gmail"
	StageNews       Stage = "news"
	StageHouse      Stage = "house"
	StageSenate     Stage = "senate"
	StageCategorize Stage = "categorize"
	StageReview     Stage = "review"
)

var stageOrder = []Stage{
	StageStart,
	StageGmail,
	StageNews,
	StageHouse,
	StageSenate,
	StageCategorize,
	StageReview,
}

// Stages returns the wizard steps in order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// FetchStages returns the steps backed by an external source.
func FetchStages() []Stage {
	return []Stage{StageGmail, StageNews, StageHouse, StageSenate}
}

// ParseStage validates a stage name.
func ParseStage(value string) (Stage, error) {
	for _, s := range stageOrder {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", value)
}

func (s Stage) position() int {
	for i, candidate := range stageOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next returns the following step; Review has none.
func (s Stage) Next() (Stage, bool) {
	i := s.position()
	if i < 0 || i+1 >= len(stageOrder) {
		return "", false
	}
	return stageOrder[i+1], true
}

// Prev returns the preceding step; Start has none.
func (s Stage) Prev() (Stage, bool) {
	i := s.position()
	if i <= 0 {
		return "", false
	}
	return stageOrder[i-1], true
}

// Fetches reports whether the stage loads from an external source.
func (s Stage) Fetches() bool {
	switch s {
	case StageGmail, StageNews, StageHouse, StageSenate:
		return true
	}
	return false
}

// ManualPrefix is the synthetic id prefix for hand-entered rows.
func (s Stage) ManualPrefix() string {
	switch s {
	case StageGmail:
		return "g"
	case StageNews:
		return "n"
	case StageHouse:
		return "h"
	case StageSenate:
		return "s"
	}
	return "m"
}
