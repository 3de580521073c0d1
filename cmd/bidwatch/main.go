package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "bidwatch"}

	root.AddCommand(serveCMD(), scrapeCMD(), migrateCMD())
	_ = root.Execute()
}
