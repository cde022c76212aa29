package router

import (
	"fmt"
	"strings"

	pkgerrors "github.com/modelmux/modelmux/pkg/errors"
	"github.com/modelmux/modelmux/pkg/types"
)

// SkipReason explains why a candidate was passed over without an attempt.
type SkipReason string

const (
	SkipDisabled      SkipReason = "disabled"
	SkipMediaNotWired SkipReason = "media_not_wired"
	SkipNoAdapter     SkipReason = "no_adapter"
	// SkipUnknownModel marks a candidate purged from the registry between
	// selection and execution.
	SkipUnknownModel SkipReason = "unknown_model"
)

// Attempt records the outcome for one candidate during an execution loop.
type Attempt struct {
	Key     types.ModelKey
	Skipped SkipReason
	Err     error
	Class   pkgerrors.Class
}

// ExhaustedError reports that every candidate was skipped or failed.
// It is a structured result, not a panic; callers inspect Attempts to see
// what was tried.
type ExhaustedError struct {
	Capability types.Capability
	Attempts   []Attempt
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no candidate models available for capability %q", e.Capability)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "all %d candidate models exhausted for capability %q:", len(e.Attempts), e.Capability)
	for _, a := range e.Attempts {
		if a.Skipped != "" {
			fmt.Fprintf(&b, " %s(skipped:%s)", a.Key, a.Skipped)
			continue
		}
		fmt.Fprintf(&b, " %s(%s:%v)", a.Key, a.Class, a.Err)
	}
	return b.String()
}
