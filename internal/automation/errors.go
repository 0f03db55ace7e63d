package automation

import "errors"

// Domain errors for the automation package.
//
// Check with errors.Is:
//
//	if errors.Is(err, automation.ErrRuleNotFound) {
//	    // handle not found case
//	}
var (
	// ErrRuleNotFound is returned when a rule ID does not exist.
	ErrRuleNotFound = errors.New("automation: rule not found")

	// ErrInvalidRule is returned when rule validation fails.
	ErrInvalidRule = errors.New("automation: invalid rule")

	// ErrInvalidName is returned when a rule name is empty or too long.
	ErrInvalidName = errors.New("automation: invalid name")

	// ErrMalformedPayload is returned when a trigger or action payload
	// does not match its declared kind. At runtime such rules are logged
	// and skipped, never propagated into the matcher or scheduler loop.
	ErrMalformedPayload = errors.New("automation: malformed payload")

	// ErrUnsupportedSchedule is returned for schedule descriptors outside
	// the "interval:N" grammar.
	ErrUnsupportedSchedule = errors.New("automation: unsupported schedule")
)
