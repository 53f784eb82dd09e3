package compare

import "fmt"

// NotFoundError is returned when a referenced inventory item does not exist.
type NotFoundError struct {
	Kind string // "inventory item", "offer", ...
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// StrategyNotFoundError is returned when a config references an unregistered
// strategy id.
type StrategyNotFoundError struct {
	StrategyID string
}

func (e StrategyNotFoundError) Error() string {
	return fmt.Sprintf("comparison strategy %q is not registered", e.StrategyID)
}

// InvalidConfigError is returned when a comparison config violates a
// constraint. For strategy option failures the message carries the
// strategy's own validation text.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e InvalidConfigError) Error() string {
	if e.Field == "" {
		return "invalid comparison config: " + e.Reason
	}
	return "invalid comparison config: " + e.Field + ": " + e.Reason
}

// ValidationResult is the outcome of a strategy validating its options.
// A failing result names the offending option and the expected type.
type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

func valid() ValidationResult {
	return ValidationResult{IsValid: true}
}

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{IsValid: false, Error: fmt.Sprintf(format, args...)}
}
