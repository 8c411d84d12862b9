package documents

import (
	"context"
	"time"
)

// NumberGenerator hands out unique document numbers per prefix.
// Implemented by pkg/numerator over a database sequence; tests swap in fakes.
type NumberGenerator interface {
	Next(ctx context.Context, prefix string, at time.Time) (string, error)
}
