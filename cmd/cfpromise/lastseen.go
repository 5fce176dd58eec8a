package main

import (
	"fmt"

	"github.com/cfengine/promise-engine/pkg/kvstore"
	"github.com/cfengine/promise-engine/pkg/lastseen"
	"github.com/cfengine/promise-engine/pkg/types"
	"github.com/spf13/cobra"
)

var lastseenCmd = &cobra.Command{
	Use:   "lastseen",
	Short: "Inspect the last-seen host index",
}

func init() {
	lastseenCmd.AddCommand(lastseenListCmd)
	lastseenCmd.AddCommand(lastseenRemoveCmd)
	lastseenCmd.AddCommand(lastseenCountCmd)
}

func openLastSeenStore() (*lastseen.Store, *kvstore.Factory, error) {
	factory, err := openFactory()
	if err != nil {
		return nil, nil, err
	}
	handle, err := factory.Handle(kvstore.DbLastSeen)
	if err != nil {
		factory.Close()
		return nil, nil, err
	}
	return lastseen.New(handle, "", nil), factory, nil
}

var lastseenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every (hostkey, direction) sighting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, factory, err := openLastSeenStore()
		if err != nil {
			return err
		}
		defer factory.Close()

		n := 0
		err = store.ScanAll(func(rec types.LastSeenRecord) bool {
			fmt.Printf("%-40s %-10s %-8s quality=%.3f last=%s\n",
				rec.HostKey, rec.Address, rec.Direction, rec.Quality, rec.LastSeen.Format("2006-01-02T15:04:05Z07:00"))
			n++
			return true
		})
		if err != nil {
			return err
		}
		fmt.Printf("%d sightings\n", n)
		return nil
	},
}

var lastseenRemoveCmd = &cobra.Command{
	Use:   "remove <hostkey>",
	Short: "Remove all sightings for a hostkey",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, factory, err := openLastSeenStore()
		if err != nil {
			return err
		}
		defer factory.Close()

		had, err := store.RemoveHost(args[0])
		if err != nil {
			return err
		}
		if !had {
			return fmt.Errorf("lastseen: no such hostkey %q", args[0])
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

var lastseenCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of distinct known hostkeys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, factory, err := openLastSeenStore()
		if err != nil {
			return err
		}
		defer factory.Close()

		n, err := store.Count()
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}
