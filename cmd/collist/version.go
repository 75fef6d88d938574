package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/collist"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of collist",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("collist version %s\n", strings.TrimSpace(collist.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
