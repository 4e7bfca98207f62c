package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/eteu-technologies/s3-deployer/internal/config"
	"github.com/eteu-technologies/s3-deployer/internal/prompt"
)

func deployCommand() *cli.Command {
	return &cli.Command{
		Name:      "deploy",
		Usage:     "deploy a build directory once",
		ArgsUsage: "<build dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				EnvVars: []string{
					"S3_DEPLOYER_ENVIRONMENT",
				},
			},
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
			},
			&cli.BoolFlag{
				Name:  "no-input",
				Usage: "never prompt, fail when the environment is not given",
			},
		},
		Action: deployEntrypoint,
	}
}

func deployEntrypoint(cctx *cli.Context) (err error) {
	var cfg *config.DeployerConfig
	if cfg, err = config.Load(cctx.Path("config")); err != nil {
		err = fmt.Errorf("failed to load config: %w", err)
		return
	}

	prompter := &prompt.Static{
		Environment: cctx.String("env"),
		Message:     cctx.String("message"),
	}
	if !cctx.Bool("no-input") {
		prompter.Next = prompt.NewTerminal()
		fmt.Println(prompt.Header())
	}

	orchestrator := newOrchestrator(cctx, cfg, prompter)
	report, err := orchestrator.Run(cctx.Context, buildPathOf(cfg, cctx.Args().First()))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logReport(report)
	return nil
}
