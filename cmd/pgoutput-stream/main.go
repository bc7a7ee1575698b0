package main

import (
	"context"
	"os"

	relay "github.com/grove/pgoutput-stream"
	"github.com/grove/pgoutput-stream/config"
	"github.com/grove/pgoutput-stream/logger"
)

func main() {
	app := newApp(run)
	if err := app.Run(os.Args); err != nil {
		logger.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	r, err := relay.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	err = r.Start(ctx)
	logger.Info("shutdown report", "report", r.Report(ctx).String())

	return err
}
