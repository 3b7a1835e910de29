package oracle

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

func appendAttemptError(accum error, attempt int, err error) error {
	return multierror.Append(accum, fmt.Errorf("attempt %d: %w", attempt+1, err))
}
