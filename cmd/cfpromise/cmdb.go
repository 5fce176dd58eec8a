package main

import (
	"fmt"

	"github.com/cfengine/promise-engine/pkg/classes"
	"github.com/cfengine/promise-engine/pkg/cmdb"
	"github.com/cfengine/promise-engine/pkg/vars"
	"github.com/spf13/cobra"
)

var cmdbCmd = &cobra.Command{
	Use:   "cmdb",
	Short: "Validate and inspect a CMDB document",
}

func init() {
	cmdbCmd.AddCommand(cmdbLoadCmd)
}

var cmdbLoadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load a CMDB document and report the vars/classes it installs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := vars.NewTable()
		ctx := classes.New(nil)

		if err := cmdb.Load(args[0], table, ctx); err != nil {
			return err
		}

		fmt.Printf("%d variables, %d classes\n", table.Count(nil, nil, nil), ctx.Count())
		return nil
	},
}
