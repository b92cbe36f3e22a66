// Package registry is the fixed table of bvc subcommands.
package registry

import (
	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/command/add"
	"github.com/keshon/bvc/internal/command/branch"
	"github.com/keshon/bvc/internal/command/commit"
	"github.com/keshon/bvc/internal/command/initrepo"
	"github.com/keshon/bvc/internal/command/log"
	"github.com/keshon/bvc/internal/command/repoconfig"
	"github.com/keshon/bvc/internal/command/rm"
	"github.com/keshon/bvc/internal/command/snapshot"
	"github.com/keshon/bvc/internal/command/status"
	"github.com/keshon/bvc/internal/command/update"
	"github.com/keshon/bvc/internal/command/verify"
)

// Commands lists every subcommand constructor in help order.
var Commands = []func(*command.App) *cobra.Command{
	initrepo.New,
	status.New,
	add.New,
	rm.New,
	commit.New,
	log.New,
	branch.New,
	update.New,
	snapshot.New,
	repoconfig.New,
	verify.New,
}

// NewRootCommand returns the bvc root command with every subcommand attached.
func NewRootCommand(app *command.App) *cobra.Command {
	return command.NewRootCommand(app, Commands...)
}
