package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/eteu-technologies/s3-deployer/internal/message"
	"github.com/eteu-technologies/s3-deployer/internal/trigger"
)

func main() {
	app := &cli.App{
		Name:      "run-deploy",
		Usage:     "ask a serving s3-deployer to deploy a build directory",
		ArgsUsage: "<build dir>",
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
			&cli.StringFlag{
				Name:     "env",
				Required: true,
			},
			&cli.StringFlag{
				Name: "message",
			},
		},
		Action: entrypoint,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln("uncaught error: ", err)
	}
}

func entrypoint(cctx *cli.Context) (err error) {
	msg := message.Trigger{
		Environment: cctx.String("env"),
		BuildPath:   cctx.Args().First(),
		Message:     cctx.String("message"),
	}

	log.Println("publishing deploy trigger")
	if err = trigger.Publish(cctx.Context, cctx.String("amqp-url"), cctx.String("amqp-queue"), msg); err != nil {
		return
	}
	log.Println("trigger published")

	return
}
