package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UploadExecutor pushes a plan to the Store.
type UploadExecutor struct {
	Store Store
	// Concurrency bounds the number of uploads in flight. Zero means unbounded.
	Concurrency int
}

// Execute uploads every entry and returns only once all of them succeeded.
// The first failure cancels the remaining uploads; objects that were already
// written stay in the bucket.
func (x *UploadExecutor) Execute(ctx context.Context, entries []PlanEntry) (uploaded int, err error) {
	total := len(entries)
	completed := atomic.NewInt64(0)

	g, gctx := errgroup.WithContext(ctx)
	if x.Concurrency > 0 {
		g.SetLimit(x.Concurrency)
	}

	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			zap.L().Debug("uploading file", zap.String("key", entry.DestinationKey))
			if err := x.upload(gctx, entry); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrUploadFailed, entry.DestinationKey, err)
			}

			done := completed.Inc()
			if gctx.Err() == nil {
				zap.L().Info("upload finished", zap.String("key", entry.DestinationKey), zap.Int64("done", done), zap.Int("total", total))
			}
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		if !errors.Is(err, ErrUploadFailed) {
			err = fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		return
	}

	uploaded = int(completed.Load())
	return
}

func (x *UploadExecutor) upload(ctx context.Context, entry PlanEntry) (err error) {
	var f *os.File
	if f, err = os.Open(entry.SourcePath); err != nil {
		return
	}
	defer f.Close()

	var info os.FileInfo
	if info, err = f.Stat(); err != nil {
		return
	}

	return x.Store.Upload(ctx, Object{
		Key:         entry.DestinationKey,
		Body:        f,
		Size:        info.Size(),
		ContentType: entry.ContentType,
		PublicRead:  true,
	})
}
