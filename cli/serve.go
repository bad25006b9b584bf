package cli

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/statements/web"
)

type ServeCmd struct {
	SourceFlags

	Port    int  `help:"Port to listen on." default:"8080"`
	NoWatch bool `help:"Do not reload when files in the data directory change."`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry, err := globals.begin(ctx, fmt.Sprintf("serve %s", filepath.Base(cmd.Data)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	runCtx, stop := signal.NotifyContext(runCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := filepath.Abs(cmd.Data)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	server := web.NewWithVersion(cmd.Port, dir, version, commitSHA)
	server.Journals = cmd.Journal
	server.WatchEnabled = !cmd.NoWatch

	printInfof(ctx.Stdout, "Starting server on %s:%d", server.Host, cmd.Port)
	printInfof(ctx.Stdout, "Serving data directory: %s", pathStyle.Render(dir))

	return server.Start(runCtx)
}
