package main

import (
	"os"

	"github.com/antinvestor/reviewbot/internal/reviewbotctl"
)

func main() {
	if err := reviewbotctl.Execute(); err != nil {
		os.Exit(1)
	}
}
