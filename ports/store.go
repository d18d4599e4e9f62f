package ports

import (
	"context"

	"powersim/domain/core"
	"powersim/domain/result"
)

// RunStore persists finished runs for later inspection. Persistence is
// optional; the engine itself never requires it.
type RunStore interface {
	SaveRun(ctx context.Context, record result.RunRecord) error
	GetRun(ctx context.Context, id core.RunID) (*result.RunRecord, error)
	ListRuns(ctx context.Context, limit, offset int) ([]result.RunRecord, error)
}
