package pipeline

import (
	"fmt"

	"github.com/rohmanhakim/chartstats/internal/config"
)

// selectionError reports a 1-based index that does not address any element.
// It wraps config.ErrInvalidConfig because the index comes from configuration.
func selectionError(what string, index int, size int) error {
	return fmt.Errorf("%w: %s index %d out of range (1..%d)", config.ErrInvalidConfig, what, index, size)
}
