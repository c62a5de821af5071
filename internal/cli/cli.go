package cli

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Run is the entry point for the rechazos binary
func Run(ctx context.Context, args []string, version string) error {
	app := &cli.Command{
		Name:    "rechazos",
		Usage:   "utility rejection case platform",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdImport(),
			cmdExport(),
			cmdWatch(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logrus.WithError(err).Error("command failed")
		return err
	}
	return nil
}
