package kvstore

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ReplicateSubcommand is the hidden argv[1] cmd/cfpromise dispatches to
// RunReplicateChild for. Repair re-execs the running binary with this
// subcommand rather than forking, since Go has no safe fork(); exec.Command
// gives the same isolation property the spec asks for — a crash or signal
// death in the child never takes down the repairing process.
const ReplicateSubcommand = "__replicate-db"

var repairLocks sync.Map // path -> *sync.Mutex

func lockFor(path string) *sync.Mutex {
	v, _ := repairLocks.LoadOrStore(path, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Repair attempts to recover one corrupt database file in place. It is
// serialized per path: concurrent Repair calls for the same file block on
// each other rather than racing.
func Repair(path string) error {
	lock := lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	dest := path + ".cf-repair-tmp"
	defer os.Remove(dest)

	cmd := exec.Command(os.Args[0], ReplicateSubcommand, path, dest)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	if runErr == nil {
		if err := os.Rename(dest, path); err != nil {
			return fmt.Errorf("kvstore: repair %s: promote replacement: %w", path, err)
		}
		return nil
	}

	// The child exited non-zero or died from a signal (e.g. SIGBUS on a
	// faulted mmap read) — the original is unrecoverable, so it is removed
	// and the repair is timestamped for RecentlyRepaired to consult.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("kvstore: repair %s: remove original after failed replicate: %w", path, err)
	}
	if err := writeRepairTimestamp(path); err != nil {
		return fmt.Errorf("kvstore: repair %s: %w", path, err)
	}
	return fmt.Errorf("kvstore: repair %s: replicate failed (%v), original removed", path, runErr)
}

func writeRepairTimestamp(path string) error {
	return os.WriteFile(path+".repaired", []byte(time.Now().UTC().Format(time.RFC3339)), 0644)
}

// RecentlyRepaired reports whether path was repaired (successfully or not)
// within window.
func RecentlyRepaired(path string, window time.Duration) bool {
	data, err := os.ReadFile(path + ".repaired")
	if err != nil {
		return false
	}
	ts, err := time.Parse(time.RFC3339, string(data))
	if err != nil {
		return false
	}
	return time.Since(ts) < window
}

// RunReplicateChild streams every record from src into a freshly created
// dest database, bucket by bucket. It is invoked as a subprocess by
// Repair, never called directly from evaluator code. Returns a process
// exit code: 0 on success, nonzero on any read/write failure.
func RunReplicateChild(src, dest string) int {
	srcDB, err := bolt.Open(src, 0600, &bolt.Options{ReadOnly: true, Timeout: 2 * time.Second})
	if err != nil {
		fmt.Fprintf(os.Stderr, "replicate: open source: %v\n", err)
		return 1
	}
	defer srcDB.Close()

	destDB, err := bolt.Open(dest, 0600, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replicate: create destination: %v\n", err)
		return 1
	}
	defer destDB.Close()

	err = srcDB.View(func(stx *bolt.Tx) error {
		return stx.ForEach(func(name []byte, sb *bolt.Bucket) error {
			return destDB.Update(func(dtx *bolt.Tx) error {
				db, err := dtx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return sb.ForEach(func(k, v []byte) error {
					return db.Put(k, v)
				})
			})
		})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "replicate: copy records: %v\n", err)
		return 2
	}
	return 0
}

// BatchResult is one file's outcome from BatchRepair.
type BatchResult struct {
	Path      string
	Diagnosis Outcome
	BackedUp  bool
	Repaired  bool
	Err       error
}

// BatchRepair diagnoses every file in paths, copies each one aside before
// touching it, repairs the ones found corrupt (or all of them, if force is
// set), and reports the outcome of every file.
func BatchRepair(paths []string, force bool) []BatchResult {
	results := make([]BatchResult, 0, len(paths))

	for _, path := range paths {
		result := BatchResult{Path: path}

		outcome, diagErr := Diagnose(path)
		result.Diagnosis = outcome

		if outcome == OK && !force {
			results = append(results, result)
			continue
		}

		if err := backupFile(path); err != nil {
			result.Err = fmt.Errorf("backup: %w", err)
			results = append(results, result)
			continue
		}
		result.BackedUp = true

		if err := Repair(path); err != nil {
			result.Err = err
			if diagErr != nil {
				result.Err = fmt.Errorf("%w (diagnosis: %v)", result.Err, diagErr)
			}
		} else {
			result.Repaired = true
		}

		results = append(results, result)
	}

	return results
}

func backupFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".bak")
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
