package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/happyrobot-antonio/rechazos/internal/client"
	"github.com/happyrobot-antonio/rechazos/internal/ingest"
	"github.com/happyrobot-antonio/rechazos/internal/shared/config"
	"github.com/happyrobot-antonio/rechazos/internal/store"
)

func cmdExport() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "export all cases to a CSV or Excel file",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one file argument")
			}
			return runExport(ctx, c.Args().First())
		},
	}
}

func runExport(ctx context.Context, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !ingest.SupportedExtension(ext) {
		return fmt.Errorf("formato de fichero no soportado: %s", ext)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(client.New(cfg.Client))
	if err := st.Refresh(ctx); err != nil {
		return fmt.Errorf("fetch cases: %w", err)
	}

	cases := st.Snapshot()

	var data []byte
	switch ext {
	case ".csv":
		data, err = ingest.ExportCSV(cases)
	default:
		data, err = ingest.ExportExcel(cases)
	}
	if err != nil {
		return fmt.Errorf("render export: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"file":  path,
		"cases": len(cases),
	}).Info("export written")
	return nil
}
