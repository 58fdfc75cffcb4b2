package patterns

import (
	"errors"
	"fmt"
)

var ErrUnknownSeverity = errors.New("unknown severity")

type Severity string

// SeverityHigh - Executables and installable packages.
const SeverityHigh Severity = "high"

// SeverityStandard - Archives, scripts, libraries, and anything else worth a warning.
const SeverityStandard Severity = "standard"

func ParseSeverity(value string) (Severity, error) {
	switch Severity(value) {
	case "", SeverityStandard:
		return SeverityStandard, nil
	case SeverityHigh:
		return SeverityHigh, nil
	}
	return "", errors.Join(ErrUnknownSeverity, fmt.Errorf("severity '%s'", value))
}

type Extension struct {
	Suffix   string
	Severity Severity
}
