package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cfengine/promise-engine/pkg/config"
	"github.com/cfengine/promise-engine/pkg/kvstore"
	"github.com/cfengine/promise-engine/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

var (
	cfg        config.Config
	configPath string
)

func main() {
	// Repair re-execs this binary with ReplicateSubcommand as argv[1];
	// intercept that before cobra ever sees argv, since it is not a
	// user-facing command.
	if len(os.Args) >= 4 && os.Args[1] == kvstore.ReplicateSubcommand {
		os.Exit(kvstore.RunReplicateChild(os.Args[2], os.Args[3]))
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:     "cfpromise",
	Short:   "Administration CLI for the promise evaluation engine",
	Long:    `cfpromise inspects and repairs the engine's on-disk state: its KV-backed databases, the last-seen host index, host identity keys, and CMDB ingestion — without running a policy evaluation.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("cfpromise version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/cfpromise.yaml", "Path to agent config file")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(lastseenCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(cmdbCmd)
	rootCmd.AddCommand(metricsCmd)
}

func initConfig() {
	loaded, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
	cfg = loaded
	log.Init(log.Config{Level: log.Level(cfg.Log.Level), JSONOutput: cfg.Log.JSON})
}

// storePath is the single bbolt file backing every kvstore.DbId bucket.
func storePath() string {
	return filepath.Join(cfg.WorkDir, "state", "cf_store.db")
}

func openFactory() (*kvstore.Factory, error) {
	path := storePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return kvstore.OpenFactory(path, cfg.KVStore.OptimizePercent)
}

// usageError marks a CLI misuse (bad arguments, an unknown DbId name) as
// severity-equivalent to spec.md §6's "Interrupted", exiting 2 instead of
// the generic failure code 1.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newUsageError(format string, a ...any) error {
	return &usageError{err: fmt.Errorf(format, a...)}
}

// exitCodeFor maps a command error onto spec.md §6's exit-code
// convention: 0 for noop/change (the success path, handled by cobra
// returning nil), 1 for fail/denied, 2 for interrupted/usage.
func exitCodeFor(err error) int {
	var ue *usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func parseDbId(name string) (kvstore.DbId, error) {
	switch name {
	case "lastseen":
		return kvstore.DbLastSeen, nil
	case "locks":
		return kvstore.DbLocks, nil
	case "classes_persistent":
		return kvstore.DbClassesPersistent, nil
	case "checksum_hashes":
		return kvstore.DbChecksumHashes, nil
	case "classic_stat":
		return kvstore.DbClassicStat, nil
	default:
		return 0, newUsageError("unknown database %q (want one of lastseen, locks, classes_persistent, checksum_hashes, classic_stat)", name)
	}
}
