package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/digivice/cmd/digivice/commands"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
	"git.home.luguber.info/inful/digivice/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Stdout: os.Stdout}
	ctx := kong.Parse(&cli,
		kong.Name("digivice"),
		kong.Description("Evolution tracker for a network-sniffing virtual pet."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(global, &cli); err != nil {
		logger := global.Logger
		if logger == nil {
			logger = slog.Default()
		}
		errors.NewCLIErrorAdapter(cli.Verbose, logger).HandleError(err)
	}
}
