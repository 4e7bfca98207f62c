package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/eteu-technologies/s3-deployer/internal/config"
	"github.com/eteu-technologies/s3-deployer/internal/deploy"
	"github.com/eteu-technologies/s3-deployer/internal/gitrev"
	"github.com/eteu-technologies/s3-deployer/internal/logging"
	"github.com/eteu-technologies/s3-deployer/internal/notify"
	"github.com/eteu-technologies/s3-deployer/internal/storage"
)

func main() {
	app := &cli.App{
		Name:  "s3-deployer",
		Usage: "deploy a static site build to an S3 bucket",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "deployer.yml",
				EnvVars: []string{
					"S3_DEPLOYER_CONFIG",
				},
			},
			&cli.BoolFlag{
				Name: "debug",
				EnvVars: []string{
					"S3_DEPLOYER_DEBUG",
				},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "auto, console or json",
				Value: logging.FormatAuto,
				EnvVars: []string{
					"S3_DEPLOYER_LOG_FORMAT",
				},
			},
			&cli.PathFlag{
				Name:  "repo",
				Usage: "git repository the version hash is read from",
				Value: ".",
			},
		},
		Before: func(cctx *cli.Context) error {
			if err := logging.Configure(logging.Options{
				Debug:  cctx.Bool("debug"),
				Format: cctx.String("log-format"),
			}); err != nil {
				fmt.Fprintln(os.Stderr, "failed to configure logging:", err)
				return err
			}
			return nil
		},
		Commands: []*cli.Command{
			deployCommand(),
			watchCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().Fatal("unhandled error", zap.Error(err))
	}
}

func newOrchestrator(cctx *cli.Context, cfg *config.DeployerConfig, prompter deploy.Prompter) *deploy.Orchestrator {
	return &deploy.Orchestrator{
		Config:   cfg,
		Prompter: prompter,
		Stores:   storage.Open,
		Notifier: notify.Slack{},
		Hash:     gitrev.ShortHash(cctx.String("repo")),
	}
}

// buildPathOf picks the build directory: the config option wins over the
// command line, as the build tool is configured there.
func buildPathOf(cfg *config.DeployerConfig, arg string) string {
	if cfg.Options.BuildPath != "" {
		return cfg.Options.BuildPath
	}
	return arg
}

func logReport(report *deploy.Report) {
	run := report.Run
	fields := []zap.Field{
		zap.String("run", run.ID),
		zap.String("environment", run.Environment),
		zap.String("version", run.Version),
		zap.Int("uploaded", run.Uploaded),
	}
	if report.Soft != nil {
		zap.L().Warn("deployment finished with warnings", append(fields, zap.Error(report.Soft))...)
		return
	}
	zap.L().Info("deployment done", fields...)
}
