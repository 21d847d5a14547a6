package domain

import (
	"errors"
	"fmt"
)

// Error kinds with distinct degradation policy. Retrieval and generation
// failures are fatal to the request; table backend failures degrade to a
// text-only context; cache tier failures never surface at all.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrRetrievalUnavailable = errors.New("vector backend unavailable")
	ErrTableUnavailable     = errors.New("table backend unavailable")
	ErrGenerationFailed     = errors.New("answer generation failed")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
