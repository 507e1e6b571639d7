package main

import (
	"os"

	"github.com/samvad-hq/samvad-trend-scout/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cli.SetVersionInfo(version, commit)
	os.Exit(cli.Execute())
}
