package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/tphakala/birddb-export/cmd"
)

func main() {
	rootCmd := cmd.RootCommand(viper.New())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "birddb-export: %v\n", err)
		os.Exit(1)
	}
}
