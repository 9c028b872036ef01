package main

import (
	"fmt"
	"runtime"

	"github.com/czx-lab/aquinas"
	"github.com/czx-lab/aquinas/technite"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(aquinas.Version())
				return
			}

			fmt.Printf("  Version:    %s\n", aquinas.Version())
			fmt.Printf("  Protocol:   %s\n", technite.ProtocolString())
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Built:      %s\n", date)
			fmt.Printf("  Go version: %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}
