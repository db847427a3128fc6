package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/broady/typroxy/cmd/typroxy/internal/check"
	"github.com/broady/typroxy/cmd/typroxy/internal/gen"
	"github.com/broady/typroxy/internal/config"
)

type CLI struct {
	Config string `help:"Configuration file (default: typroxy.yaml if present)." short:"c" type:"path"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Check   check.Cmd  `cmd:"" help:"Compile contracts and report definition errors."`
	Export  gen.Cmd    `cmd:"" help:"Compile contracts and export the descriptor set."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	// .env is optional; TYPROXY_* variables may also come from the shell.
	_ = godotenv.Load()

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("typroxy"),
		kong.Description("Compile and inspect typroxy API contracts."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	ctx.FatalIfErrorf(err)
	logger := cfg.Logger(os.Stderr)
	if cfg.File != "" {
		logger.Debug("loaded config", "file", cfg.File)
	}

	err = ctx.Run(cfg, logger)
	ctx.FatalIfErrorf(err)
}
