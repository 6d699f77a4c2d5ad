package pipeline

import (
	"fmt"
	"strings"
)

// Mode selects which stages a run executes.
type Mode string

const (
	// ModeCollect fetches feeds into the item store.
	ModeCollect Mode = "collect"
	// ModeScore rates one batch of unscored items.
	ModeScore Mode = "score"
	// ModeGenerate drafts content for qualified items.
	ModeGenerate Mode = "generate"
	// ModeValidate assesses drafts currently in review.
	ModeValidate Mode = "validate"
	// ModePublish assesses pending drafts and applies the approval gate.
	ModePublish Mode = "publish"
	// ModeFull runs every stage in order.
	ModeFull Mode = "full"
)

// Modes lists the accepted run modes.
func Modes() []Mode {
	return []Mode{ModeCollect, ModeScore, ModeGenerate, ModeValidate, ModePublish, ModeFull}
}

// ParseMode validates a mode string.
func ParseMode(value string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Modes() {
		if mode == known {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unknown pipeline mode %q (expected one of collect, score, generate, validate, publish, full)", value)
}
