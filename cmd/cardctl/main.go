package main

import (
	"os"

	"github.com/kutbudev/cardboard/internal/cli/admin"
)

func main() {
	if err := admin.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
