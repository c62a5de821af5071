package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/happyrobot-antonio/rechazos/internal/client"
	"github.com/happyrobot-antonio/rechazos/internal/ingest"
	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
	"github.com/happyrobot-antonio/rechazos/internal/shared/config"
	"github.com/happyrobot-antonio/rechazos/internal/store"
)

func cmdImport() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "import cases from a CSV or Excel file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "duplicate-mode",
				Usage: "policy for rows whose Código SC already exists: append or overwrite",
				Value: "append",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one file argument")
			}
			return runImport(ctx, c.Args().First(), c.String("duplicate-mode"))
		},
	}
}

func runImport(ctx context.Context, path, modeFlag string) error {
	mode, err := domain.ParseDuplicateMode(modeFlag)
	if err != nil {
		return err
	}

	if ext := filepath.Ext(path); !ingest.SupportedExtension(ext) {
		return fmt.Errorf("formato de fichero no soportado: %s", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	rows, err := ingest.Decode(filepath.Base(path), data)
	if err != nil {
		return err
	}

	cases, rowErrs := ingest.MapRows(rows)
	for _, rowErr := range rowErrs {
		logrus.Warn(rowErr.Error())
	}
	if len(cases) == 0 {
		return fmt.Errorf("el fichero no contiene filas válidas")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := store.New(client.New(cfg.Client))
	if err := st.Refresh(ctx); err != nil {
		return fmt.Errorf("fetch existing cases: %w", err)
	}

	duplicates := ingest.DetectDuplicates(cases, st.Keys())
	if len(duplicates) > 0 {
		logrus.WithField("count", len(duplicates)).
			WithField("mode", mode).
			Info("duplicate cases detected")
	}

	selection := ingest.NewSelection(cases, duplicates)
	selection.SetMode(mode)

	selected, policy, err := selection.Confirm()
	if err != nil {
		return err
	}

	result := ingest.NewPipeline(st).Commit(ctx, selected, policy)
	fmt.Println(result.Summary())

	if !result.Success() {
		return fmt.Errorf("%d filas fallaron", result.Failed)
	}
	return nil
}
