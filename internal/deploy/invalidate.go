package deploy

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"
)

func fmtCallerReference(ts int64, id string) string {
	return fmt.Sprintf("%d-%s", ts, id)
}

// InvalidationTrigger asks the CDN to drop its cached entry document.
type InvalidationTrigger struct {
	Enabled        bool
	EntryHTML      string
	DistributionID string
	Store          Store
}

func (t *InvalidationTrigger) Invalidate(ctx context.Context, run *Run) (err error) {
	if !t.Enabled {
		return
	}

	if t.DistributionID == "" {
		zap.L().Error("no distribution id provided, skipping invalidation", zap.String("environment", run.Environment))
		err = Soft(fmt.Errorf("%w: no distribution id provided", ErrInvalidationFailed))
		return
	}

	entryPath := "/" + path.Clean(t.EntryHTML)
	ref := run.CallerReference()
	if err = t.Store.CreateInvalidation(ctx, t.DistributionID, ref, []string{entryPath}); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidationFailed, err)
		return
	}

	zap.L().Info("entry document invalidated", zap.String("path", entryPath), zap.String("distribution_id", t.DistributionID), zap.String("caller_reference", ref))
	return
}
