package gitrev

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eteu-technologies/s3-deployer/internal/deploy"
	"github.com/eteu-technologies/s3-deployer/internal/logging"
)

// ShortHash returns a deploy.HashFunc reading the abbreviated HEAD commit of
// the repository containing dir.
func ShortHash(dir string) deploy.HashFunc {
	return func(ctx context.Context) (hash string, err error) {
		var stdout bytes.Buffer

		cmd := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD")
		cmd.Dir = dir
		cmd.Stdout = &stdout
		stderr := logging.NewZapWriter(zapcore.DebugLevel, "stderr", zap.String("cmd", "git"))
		defer stderr.Close()
		cmd.Stderr = stderr

		if err = cmd.Run(); err != nil {
			err = fmt.Errorf("git rev-parse failed: %w", err)
			return
		}

		hash = strings.TrimSpace(stdout.String())
		return
	}
}
