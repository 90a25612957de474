package version

import (
	"github.com/Zheaoli/hexo-algoliasearch/internal/cmd/base"
	"github.com/Zheaoli/hexo-algoliasearch/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: hexo-algoliasearch version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output("hexo-algoliasearch " + version.Full())
	return 0
}
