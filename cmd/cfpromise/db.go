package main

import (
	"fmt"

	"github.com/cfengine/promise-engine/pkg/kvstore"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and repair the engine's KV-backed databases",
}

func init() {
	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbGetCmd)
	dbCmd.AddCommand(dbRemoveCmd)
	dbCmd.AddCommand(dbRepairCmd)
}

var dbListCmd = &cobra.Command{
	Use:   "list <dbid>",
	Short: "List every key in a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDbId(args[0])
		if err != nil {
			return err
		}

		factory, err := openFactory()
		if err != nil {
			return err
		}
		defer factory.Close()

		handle, err := factory.Handle(id)
		if err != nil {
			return err
		}
		defer handle.Close()

		cur, err := handle.NewCursor()
		if err != nil {
			return err
		}
		defer cur.Close()

		n := 0
		for {
			key, value, ok := cur.Next()
			if !ok {
				break
			}
			fmt.Printf("%-40q %d bytes\n", string(key), len(value))
			n++
		}
		fmt.Printf("%d entries\n", n)
		return nil
	},
}

var dbGetCmd = &cobra.Command{
	Use:   "get <dbid> <key>",
	Short: "Print the value stored under key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDbId(args[0])
		if err != nil {
			return err
		}

		factory, err := openFactory()
		if err != nil {
			return err
		}
		defer factory.Close()

		handle, err := factory.Handle(id)
		if err != nil {
			return err
		}
		defer handle.Close()

		value, ok := handle.Read([]byte(args[1]))
		if !ok {
			return fmt.Errorf("db: no such key %q in %s", args[1], id)
		}
		fmt.Println(string(value))
		return nil
	},
}

var dbRemoveCmd = &cobra.Command{
	Use:   "remove <dbid> <key>",
	Short: "Delete a key (a missing key is not an error)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseDbId(args[0])
		if err != nil {
			return err
		}

		factory, err := openFactory()
		if err != nil {
			return err
		}
		defer factory.Close()

		handle, err := factory.Handle(id)
		if err != nil {
			return err
		}
		defer handle.Close()

		if err := handle.Delete([]byte(args[1])); err != nil {
			return err
		}
		fmt.Printf("removed %q from %s\n", args[1], id)
		return nil
	},
}

var dbRepairCmd = &cobra.Command{
	Use:   "repair <dbid>",
	Short: "Repair the shared database file backing dbid",
	Long:  `All DbIds live in one bbolt file, one bucket each, so repair recovers the whole file; dbid is accepted for symmetry with the other db subcommands.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := parseDbId(args[0]); err != nil {
			return err
		}

		path := storePath()
		if err := kvstore.Repair(path); err != nil {
			return err
		}
		fmt.Printf("repaired %s\n", path)
		return nil
	},
}
