package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputNotFound        = errors.New("input not found")
	ErrExternalTool         = errors.New("external tool error")
	ErrRecognition          = errors.New("recognition error")
	ErrOutputWrite          = errors.New("output write error")
	ErrOutputConflict       = errors.New("output already exists")
	ErrUnsupportedContainer = errors.New("unsupported container")
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the marker carried by err, used in per-file
// status lines and the catalog's last_error column.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputNotFound):
		return "input"
	case errors.Is(err, ErrRecognition):
		return "recognition"
	case errors.Is(err, ErrOutputConflict):
		return "conflict"
	case errors.Is(err, ErrOutputWrite):
		return "output"
	case errors.Is(err, ErrUnsupportedContainer):
		return "container"
	case errors.Is(err, ErrConfiguration):
		return "config"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrExternalTool):
		return "tool"
	default:
		return "error"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
