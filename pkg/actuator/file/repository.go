package file

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cfengine/promise-engine/pkg/classes"
)

// timestampSuffix builds the "_<start_epoch>_<canon(ctime)>" stamp every
// backup name can carry, derived entirely from startTime so repeated
// renames within one run sort together regardless of how long the run
// takes.
func timestampSuffix(startTime time.Time) string {
	ctime := startTime.Format("Mon Jan 2 15:04:05 2006")
	return fmt.Sprintf("_%d_%s", startTime.Unix(), classes.Canonify(ctime))
}

// archiveToRepository copies path into repoDir (flat, named by the
// canonified full path with a numeric disambiguator on collision) and unlinks the original on success.
// A disabled (empty) repoDir is a silent no-op failure, matching the
// original's behavior of leaving displaced content in place when no
// repository is configured.
func archiveToRepository(path, repoDir string) bool {
	if repoDir == "" {
		return false
	}
	if err := os.MkdirAll(repoDir, 0o750); err != nil {
		return false
	}

	dest := repoDir + string(os.PathSeparator) + sanitizeBase(path)
	for i := 1; fileExists(dest); i++ {
		dest = fmt.Sprintf("%s.%d", repoDir+string(os.PathSeparator)+sanitizeBase(path), i)
	}

	if err := copyRegularFileDiskSimple(path, dest); err != nil {
		return false
	}
	_ = os.Remove(path)
	return true
}

func sanitizeBase(path string) string {
	return classes.Canonify(path)
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func copyRegularFileDiskSimple(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// rotateFiles keeps up to keep numbered copies of backup, shifting
// backup.1 -> backup.2 etc. before the fresh backup lands at backup.1.
func rotateFiles(backup string, keep int) error {
	if keep <= 0 {
		return nil
	}

	names := make([]string, 0, keep)
	for i := keep; i >= 1; i-- {
		names = append(names, fmt.Sprintf("%s.%d", backup, i))
	}

	for i, name := range names {
		if i == 0 {
			_ = os.Remove(name) // oldest slot falls off
			continue
		}
		older := names[i]
		newer := names[i-1]
		if fileExists(older) {
			_ = os.Rename(older, newer)
		}
	}

	if fileExists(backup) {
		return os.Rename(backup, fmt.Sprintf("%s.1", backup))
	}
	return nil
}
