package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/eteu-technologies/s3-deployer/internal/config"
	"github.com/eteu-technologies/s3-deployer/internal/prompt"
	"github.com/eteu-technologies/s3-deployer/internal/watch"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "deploy every time the build tool emits a new entry document",
		ArgsUsage: "<build dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "env",
				Aliases:  []string{"e"},
				Required: true,
				EnvVars: []string{
					"S3_DEPLOYER_ENVIRONMENT",
				},
			},
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
			},
			&cli.DurationFlag{
				Name:  "quiet",
				Usage: "how long the entry document must stay unchanged before deploying",
				Value: 2 * time.Second,
			},
		},
		Action: watchEntrypoint,
	}
}

func watchEntrypoint(cctx *cli.Context) (err error) {
	var cfg *config.DeployerConfig
	if cfg, err = config.Load(cctx.Path("config")); err != nil {
		err = fmt.Errorf("failed to load config: %w", err)
		return
	}

	buildPath := buildPathOf(cfg, cctx.Args().First())
	if buildPath == "" {
		return cli.Exit("build directory is missing", 1)
	}
	entryPath := filepath.Join(buildPath, cfg.Options.EntryHTML)

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt)
	defer stop()

	orchestrator := newOrchestrator(cctx, cfg, &prompt.Static{
		Environment: cctx.String("env"),
		Message:     cctx.String("message"),
	})

	// The pipeline rewrites the entry document itself; the digest of the
	// last deployed document tells those writes apart from new builds.
	var deployed [32]byte

	zap.L().Info("watching for builds", zap.String("entry", entryPath), zap.String("environment", cctx.String("env")))
	err = watch.File(ctx, entryPath, cctx.Duration("quiet"), func(ctx context.Context) {
		data, rerr := ioutil.ReadFile(entryPath)
		if rerr != nil {
			zap.L().Warn("entry document unreadable, waiting for the next build", zap.Error(rerr))
			return
		}
		if blake3.Sum256(data) == deployed {
			zap.L().Debug("entry document unchanged since last deploy")
			return
		}

		report, derr := orchestrator.Run(ctx, buildPath)
		// Recorded even for failed runs: the entry may already be rewritten.
		if data, rerr = ioutil.ReadFile(entryPath); rerr == nil {
			deployed = blake3.Sum256(data)
		}

		if derr != nil {
			zap.L().Error("deployment failed", zap.Error(derr))
			return
		}
		logReport(report)
	})

	zap.L().Info("exiting")
	return
}
