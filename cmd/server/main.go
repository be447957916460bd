package main

import (
	"os"

	"github.com/iliyamo/store-rating-api/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
