package main

import (
	"os"

	"github.com/Zheaoli/hexo-algoliasearch/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
