package main

import (
	"os"

	"github.com/ledgerdesk/ledgerdesk/cmd/ledgerctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
