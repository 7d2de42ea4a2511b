// pkg/extract/source.go
package extract

import (
	"context"
	"fmt"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// Source produces the raw sales record set
type Source interface {
	// Name identifies the source in logs and metrics
	Name() string

	// Extract fetches the raw table. It has no side effects, so a failed
	// call can be retried as a whole.
	Extract(ctx context.Context) (*model.RawTable, error)
}

// StatusError is returned when the data API answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if repeated
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
