package prompt

import (
	"context"
	"errors"

	"github.com/eteu-technologies/s3-deployer/internal/deploy"
)

// Static answers from preset values, typically command line flags. Unset
// values are asked from Next when it is set.
type Static struct {
	Environment string
	Message     string
	Next        deploy.Prompter
}

var _ deploy.Prompter = (*Static)(nil)

func (s *Static) ChooseEnvironment(ctx context.Context, names []string) (string, error) {
	if s.Environment != "" {
		return s.Environment, nil
	}
	if s.Next != nil {
		return s.Next.ChooseEnvironment(ctx, names)
	}
	return "", errors.New("no environment given")
}

func (s *Static) DeployMessage(ctx context.Context) (string, error) {
	if s.Message != "" || s.Next == nil {
		return s.Message, nil
	}
	return s.Next.DeployMessage(ctx)
}
