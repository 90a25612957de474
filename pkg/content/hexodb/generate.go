package hexodb

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// DefaultGenerateCommand regenerates the site and its database.
var DefaultGenerateCommand = []string{"hexo", "generate"}

// CommandGenerator implements content.Generator by running the site
// generator as a subprocess.
type CommandGenerator struct {
	Command []string
	Dir     string
	Logger  hclog.Logger
}

// Generate runs the generator command and waits for it to exit.
func (g *CommandGenerator) Generate(ctx context.Context) error {
	if len(g.Command) == 0 {
		return fmt.Errorf("generate command is empty")
	}

	logger := g.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	cmd := exec.CommandContext(ctx, g.Command[0], g.Command[1:]...)
	cmd.Dir = g.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Debug("running site generator", "command", strings.Join(g.Command, " "), "dir", g.Dir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("error running %q: %w: %s",
			strings.Join(g.Command, " "), err, strings.TrimSpace(out.String()))
	}
	logger.Debug("site generator finished", "output_bytes", out.Len())

	return nil
}
