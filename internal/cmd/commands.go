package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/Zheaoli/hexo-algoliasearch/internal/cmd/base"
	"github.com/Zheaoli/hexo-algoliasearch/internal/cmd/commands/history"
	"github.com/Zheaoli/hexo-algoliasearch/internal/cmd/commands/index"
	"github.com/Zheaoli/hexo-algoliasearch/internal/cmd/commands/version"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"index": func() (cli.Command, error) {
			return &index.Command{Command: b}, nil
		},
		"history": func() (cli.Command, error) {
			return &history.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
