package classifier

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

// ErrInsufficientData means too few collectors succeeded to classify.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError reports a failed collector quorum. Its message is
// returned to API callers verbatim.
type InsufficientDataError struct {
	Succeeded int
	Required  int
	Errors    []string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("Insufficient data: only %d/%d collectors succeeded. Minimum %d required. Errors: %v",
		e.Succeeded, len(models.Sources), e.Required, e.Errors)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }
