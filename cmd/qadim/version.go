package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the qadim version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qadim %s\n", version)
		},
	}
}
