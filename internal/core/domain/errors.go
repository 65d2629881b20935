package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoQuery      = errors.New("query is required")
	ErrCatalogLoad  = errors.New("catalog load failed")
	ErrContentFetch = errors.New("document content fetch failed")
	ErrCompletion   = errors.New("completion failed")
	ErrUnavailable  = errors.New("temporarily unavailable")
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
