package ai

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

var (
	ErrProviderUnavailable = models.ErrLLMUnavailable
	ErrInferenceTimeout    = models.ErrLLMTimeout
	ErrInvalidResponse     = models.ErrLLMInvalidResponse

	ErrTooFewTerms          = errors.New("too few expansion terms")
	ErrInsufficientAnalyses = errors.New("insufficient data for analysis")
)

// Response contract violations. Every model reply is checked against these
// in order; the first one that applies is returned inside a ContractError.
var (
	ErrInvalidJSON     = errors.New("response is not valid JSON")
	ErrMissingFields   = errors.New("response missing required fields")
	ErrInvalidPhase    = errors.New("response phase not recognised")
	ErrConfidenceRange = errors.New("response confidence out of range")
)

// ContractError reports a model reply that broke the analysis schema.
type ContractError struct {
	Kind   error
	Detail string
	Raw    string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ContractError) Unwrap() error { return e.Kind }
