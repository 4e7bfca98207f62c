package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/streadway/amqp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/eteu-technologies/s3-deployer/internal/config"
	"github.com/eteu-technologies/s3-deployer/internal/prompt"
	"github.com/eteu-technologies/s3-deployer/internal/trigger"
	"github.com/eteu-technologies/s3-deployer/internal/watch"
)

var configRef atomic.Value

func currentConfig() *config.DeployerConfig {
	return configRef.Load().(*config.DeployerConfig)
}

func reloadConfig(configFile string) (err error) {
	var cfg *config.DeployerConfig
	if cfg, err = config.Load(configFile); err != nil {
		return
	}
	configRef.Store(cfg)
	return
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "deploy builds announced on an amqp queue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name: "amqp-url",
				EnvVars: []string{
					"S3_DEPLOYER_AMQP_URL",
				},
				Required: true,
			},
			&cli.StringFlag{
				Name: "amqp-queue",
				EnvVars: []string{
					"S3_DEPLOYER_AMQP_QUEUE",
				},
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "reload-quiet",
				Usage: "delay before a changed config file is reloaded",
				Value: time.Second,
			},
		},
		Action: serveEntrypoint,
	}
}

func serveEntrypoint(cctx *cli.Context) (err error) {
	configFile := cctx.Path("config")
	if err = reloadConfig(configFile); err != nil {
		err = fmt.Errorf("failed to load config: %w", err)
		return
	}

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt)
	defer stop()

	go func() {
		werr := watch.File(ctx, configFile, cctx.Duration("reload-quiet"), func(context.Context) {
			if rerr := reloadConfig(configFile); rerr != nil {
				zap.L().Error("failed to reload configuration, keeping the previous one", zap.Error(rerr))
			}
		})
		if werr != nil {
			zap.L().Warn("configuration will not be reloaded", zap.Error(werr))
		}
	}()

	var c *trigger.Consumer
	if c, err = trigger.Dial(cctx.String("amqp-url"), cctx.String("amqp-queue")); err != nil {
		return
	}

mainLoop:
	for {
		select {
		case delivery, ok := <-c.Deliveries:
			if !ok {
				zap.L().Warn("delivery channel closed")
				break mainLoop
			}
			if cerr := c.Err(); cerr != nil {
				zap.L().Warn("last amqp error", zap.Error(cerr))
				break mainLoop
			}

			zap.L().Debug("got delivery", zap.Uint64("delivery_tag", delivery.DeliveryTag), zap.Time("ts", delivery.Timestamp))
			handleDelivery(ctx, cctx, delivery)
		case <-ctx.Done():
			break mainLoop
		}
	}

	zap.L().Info("exiting")

	if cerr := c.Close(); cerr != nil {
		zap.L().Warn("failed to close consumer", zap.Error(cerr))
	}

	return
}

func handleDelivery(ctx context.Context, cctx *cli.Context, delivery amqp.Delivery) {
	msg, err := trigger.Decode(delivery)
	if err != nil {
		zap.L().Error("rejecting trigger", zap.Uint64("delivery_tag", delivery.DeliveryTag), zap.Error(err))
		if nerr := delivery.Nack(false, false); nerr != nil {
			zap.L().Warn("failed to reject delivery", zap.Error(nerr))
		}
		return
	}

	cfg := currentConfig()
	orchestrator := newOrchestrator(cctx, cfg, &prompt.Static{
		Environment: msg.Environment,
		Message:     msg.Message,
	})

	report, err := orchestrator.Run(ctx, buildPathOf(cfg, msg.BuildPath))
	if err != nil {
		zap.L().Error("deployment failed", zap.Uint64("delivery_tag", delivery.DeliveryTag), zap.String("environment", msg.Environment), zap.Error(err))
	} else {
		logReport(report)
	}

	if aerr := delivery.Ack(false); aerr != nil {
		zap.L().Warn("failed to ack delivery", zap.Error(aerr))
	}
}
