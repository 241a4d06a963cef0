package main

import (
	"os"

	"github.com/slash-lang/slash/cmd/slash/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
