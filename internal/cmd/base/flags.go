package base

import (
	"bytes"
	"flag"
	"fmt"
	"strings"
)

// FlagSet wraps flag.FlagSet to render help text for command usage.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet returns a FlagSet that writes parse errors nowhere; commands
// report them through their UI.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(&bytes.Buffer{})
	return &FlagSet{FlagSet: f}
}

// Help returns the formatted flag descriptions.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("\n\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&b, "\n  -%s", fl.Name)
		if name, _ := flag.UnquoteUsage(fl); name != "" {
			fmt.Fprintf(&b, "=<%s>", name)
		}
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&b, "\n    Default: %s", fl.DefValue)
		}
		_, usage := flag.UnquoteUsage(fl)
		fmt.Fprintf(&b, "\n    %s\n", usage)
	})
	return strings.TrimRight(b.String(), "\n")
}
