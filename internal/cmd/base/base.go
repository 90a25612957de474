package base

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command holds what every subcommand shares.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewCommand returns a base command for subcommands to embed.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log: log,
		UI:  ui,
	}
}
