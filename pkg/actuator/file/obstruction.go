package file

import (
	"fmt"
	"os"
	"time"

	"github.com/cfengine/promise-engine/pkg/log"
	"github.com/cfengine/promise-engine/pkg/types"
)

// MoveObstruction clears whatever currently sits at path out of the way of
// a promise that wants to create or replace it there. It reports Noop when
// nothing was in the way, Change when an obstruction was successfully
// moved aside, and Fail when it couldn't be (including when
// move_obstructions forbids moving it at all).
func MoveObstruction(path string, attrs types.FileAttrs, startTime time.Time, repoDir string) (types.PromiseResult, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return types.ResultNoop, nil
	}
	if err != nil {
		return types.ResultFail, fmt.Errorf("file: lstat %s: %w", path, err)
	}

	if !attrs.MoveObstructions {
		log.Logger.Warn().Str("path", path).Msg("object is obstructing promise")
		return types.ResultFail, nil
	}

	stamp := timestampSuffix(startTime)

	if info.IsDir() {
		saved := path + stamp + ".cf-saved.dir"
		if fileExists(saved) {
			log.Logger.Warn().Str("path", path).Str("target", saved).Msg("couldn't move directory aside, target exists")
			return types.ResultFail, nil
		}
		if err := os.Rename(path, saved); err != nil {
			return types.ResultFail, fmt.Errorf("file: rename %s to %s: %w", path, saved, err)
		}
		log.Logger.Info().Str("path", path).Str("saved", saved).Msg("moved obstructing directory aside")
		return types.ResultChange, nil
	}

	saved := path
	if attrs.Backup == types.BackupTimestamp {
		saved += stamp
	}
	saved += ".cf-saved"

	if err := os.Rename(path, saved); err != nil {
		return types.ResultFail, fmt.Errorf("file: rename %s to %s: %w", path, saved, err)
	}
	log.Logger.Info().Str("path", path).Str("saved", saved).Msg("moved obstructing object aside")

	if archiveToRepository(saved, repoDir) {
		log.Logger.Info().Str("saved", saved).Msg("archived obstruction")
	}

	return types.ResultChange, nil
}
