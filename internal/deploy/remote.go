package deploy

import (
	"context"
	"io"

	"github.com/eteu-technologies/s3-deployer/internal/config"
)

// Object is a single file pushed to the bucket.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	PublicRead  bool
}

// Store is the object store and CDN of one environment.
type Store interface {
	Upload(ctx context.Context, obj Object) error
	CreateInvalidation(ctx context.Context, distributionID, callerReference string, paths []string) error
}

// StoreFactory opens the Store for a validated environment.
type StoreFactory func(ctx context.Context, env config.Environment) (Store, error)

type Notifier interface {
	Send(ctx context.Context, webhook string, payload config.NotificationPayload) error
}

// Prompter asks the operator for the run inputs.
type Prompter interface {
	ChooseEnvironment(ctx context.Context, names []string) (string, error)
	DeployMessage(ctx context.Context) (string, error)
}
