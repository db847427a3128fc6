package gen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/broady/typroxy/internal/config"
	"github.com/broady/typroxy/internal/export"
	"github.com/broady/typroxy/internal/source"
)

type Cmd struct {
	Out     string   `arg:"" optional:"" help:"Output file, - for stdout (default: output.path from config)."`
	Format  string   `help:"Output format: json, yaml or xlsx (default: output.format from config)." short:"f"`
	Package []string `help:"Package patterns to scan (default: source.patterns from config)." short:"p"`
	Base    string   `help:"Base contract appended to every contract, as Name or import/path.Name." short:"b"`
}

func (c *Cmd) Run(cfg *config.Config, logger *slog.Logger) error {
	return c.Execute(context.Background(), cfg, logger, os.Stdout)
}

// Execute compiles the contracts and exports the descriptor set. stdout
// receives the export when the output path is "-".
func (c *Cmd) Execute(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	format := cfg.Output.Format
	if c.Format != "" {
		format = c.Format
	}
	exporter, err := export.ForFormat(format)
	if err != nil {
		return err
	}

	opts := source.Options{
		Patterns:     cfg.Source.Patterns,
		Dir:          cfg.Source.Dir,
		BaseContract: cfg.Source.BaseContract,
	}
	if len(c.Package) > 0 {
		opts.Patterns = c.Package
	}
	if c.Base != "" {
		opts.BaseContract = c.Base
	}

	result, err := source.Load(ctx, opts)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	set, err := result.Compile(logger)
	if err != nil {
		return err
	}

	out := cfg.Output.Path
	if c.Out != "" {
		out = c.Out
	}
	if out == "" || out == "-" {
		return exporter.Export(stdout, set.Describe())
	}

	path, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := exporter.Export(f, set.Describe()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("exported descriptor set",
		slog.String("path", path),
		slog.String("format", format),
		slog.Int("contracts", set.Len()))
	return nil
}
