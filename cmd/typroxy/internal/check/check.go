package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/broady/typroxy"
	"github.com/broady/typroxy/internal/config"
	"github.com/broady/typroxy/internal/source"
)

type Cmd struct {
	Package []string `help:"Package patterns to scan (default: source.patterns from config)." short:"p"`
	Base    string   `help:"Base contract appended to every contract, as Name or import/path.Name." short:"b"`
	Verbose bool     `help:"List every contract and operation." short:"v"`
}

func (c *Cmd) Run(cfg *config.Config, logger *slog.Logger) error {
	return c.Execute(context.Background(), cfg, logger, os.Stdout)
}

// Execute loads and compiles the contracts, writing a summary to w.
func (c *Cmd) Execute(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer) error {
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
	fmt.Fprintf(w, "✓ Loaded %d packages\n", len(result.Packages))
	if result.Base != nil {
		fmt.Fprintf(w, "✓ Found base contract: %s\n", result.Base.QualifiedName())
	}

	set, err := result.Compile(logger)
	if err != nil {
		var terr *typroxy.Error
		if errors.As(err, &terr) {
			fmt.Fprintf(w, "✗ %s\n", terr.Message)
			if terr.Contract != "" {
				fmt.Fprintf(w, "  contract:  %s\n", terr.Contract)
			}
			if terr.Operation != "" {
				fmt.Fprintf(w, "  operation: %s\n", terr.Operation)
			}
			if terr.Parameter != "" {
				fmt.Fprintf(w, "  parameter: %s\n", terr.Parameter)
			}
		}
		return err
	}

	var operations int
	for _, contract := range set.Contracts() {
		ops := contract.Operations()
		operations += len(ops)
		if !c.Verbose {
			continue
		}
		fmt.Fprintf(w, "  %s (%s) %s\n", contract.Name(), contract.RegionKey(), contract.Route())
		for _, op := range ops {
			fmt.Fprintf(w, "    %-6s %s %s\n", op.Verb(), op.ID(), op.Template())
		}
	}
	fmt.Fprintf(w, "✓ %d contracts, %d operations\n", set.Len(), operations)
	return nil
}
