package deploy

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eteu-technologies/s3-deployer/internal/config"
)

const (
	DeployRecordFile = "deploy.txt"
	RobotsFile       = "robots.txt"

	artifactMode = 0o644
)

// RenderRobots renders the crawler policy. Every rule produces its user-agent
// line, one disallow line per ignored path and a blank separator.
func RenderRobots(rules []config.RobotsRule) string {
	var b strings.Builder
	for _, rule := range rules {
		b.WriteString("User-agent: " + rule.UserAgent + "\n")
		for _, p := range rule.IgnorePaths {
			b.WriteString("Disallow: " + p + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ArtifactWriter writes the generated files into the build directory.
type ArtifactWriter struct {
	GenerateDeployFile bool
	Robots             []config.RobotsRule
}

// Write writes the deploy record and the robots file. A deploy record failure
// is returned as is; a robots failure is returned wrapped with Soft.
func (w *ArtifactWriter) Write(run *Run) (err error) {
	if w.GenerateDeployFile {
		path := filepath.Join(run.BuildPath, DeployRecordFile)
		if err = ioutil.WriteFile(path, []byte(run.DeployMessage), artifactMode); err != nil {
			err = fmt.Errorf("%s was unable to be created: %w", DeployRecordFile, err)
			return
		}
		zap.L().Debug("artifact created", zap.String("file", DeployRecordFile))
	}

	if len(w.Robots) > 0 {
		path := filepath.Join(run.BuildPath, RobotsFile)
		if werr := ioutil.WriteFile(path, []byte(RenderRobots(w.Robots)), artifactMode); werr != nil {
			zap.L().Error("artifact was unable to be created", zap.String("file", RobotsFile), zap.Error(werr))
			err = Soft(fmt.Errorf("%s was unable to be created: %w", RobotsFile, werr))
			return
		}
		zap.L().Debug("artifact created", zap.String("file", RobotsFile))
	}

	return
}
