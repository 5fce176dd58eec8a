package file

import (
	"bytes"
	"crypto/sha256"
	"io"
	"os"
	"time"

	"github.com/cfengine/promise-engine/pkg/log"
	"github.com/cfengine/promise-engine/pkg/metrics"
	"github.com/cfengine/promise-engine/pkg/statcache"
	"github.com/cfengine/promise-engine/pkg/types"
)

// sourceServer stands in for the (external) network transport's server
// identity, for CopyFrom sources — this actuator never actually dials a
// remote host, but the stat cache's (server, path) key shape is designed
// for that case, so a fixed placeholder keeps every CopyFrom lookup in
// one cache namespace.
const sourceServer = "localhost"

// Actuator converges file promises. StartTime anchors every backup
// timestamp this run produces; RepositoryDir is where obstruction/edit
// backups are archived when the promise's backup policy calls for it
// (empty disables archiving). Stat caches CopyFrom sources' metadata for
// the lifetime of the run, since the iteration engine can expand one
// promise into many concrete promisers that all copy from the same
// source.
type Actuator struct {
	StartTime     time.Time
	RepositoryDir string
	Stat          *statcache.Cache
}

// New returns an Actuator ready to converge promises for one run.
func New(startTime time.Time, repositoryDir string) *Actuator {
	return &Actuator{StartTime: startTime, RepositoryDir: repositoryDir, Stat: statcache.New()}
}

// Evaluate implements evaluator.Actuator: copy-from-source when CopyFrom
// is set, otherwise a content-replace ("edit") promise.
func (a *Actuator) Evaluate(p types.Promise, concretePromiser string) (types.PromiseResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ActuatorDuration, p.Type.String())

	attrs := p.Attrs.File
	if attrs == nil {
		attrs = &types.FileAttrs{}
	}

	logger := log.WithPromise(p.Handle, p.Type.String())

	var (
		result types.PromiseResult
		err    error
	)
	if attrs.CopyFrom != "" {
		result, err = a.convergeCopy(concretePromiser, attrs)
	} else {
		result, err = a.convergeEdit(concretePromiser, attrs)
	}

	if err != nil {
		logger.Error().Err(err).Str("path", concretePromiser).Msg("file promise failed")
		return types.ResultFail, err
	}
	if result == types.ResultChange {
		metrics.ActuatorRepairsTotal.WithLabelValues(p.Type.String()).Inc()
		logger.Info().Str("path", concretePromiser).Msg("file promise repaired")
	}
	return result, nil
}

func (a *Actuator) convergeCopy(dst string, attrs *types.FileAttrs) (types.PromiseResult, error) {
	obstruction := types.ResultNoop
	if info, statErr := os.Lstat(dst); statErr == nil && !info.Mode().IsRegular() {
		moved, err := MoveObstruction(dst, *attrs, a.StartTime, a.RepositoryDir)
		if err != nil {
			return types.ResultFail, err
		}
		if moved == types.ResultFail {
			return types.ResultFail, nil
		}
		obstruction = moved
	}

	srcStat, err := a.statSource(attrs.CopyFrom)
	if err != nil {
		return types.ResultFail, err
	}

	same, err := filesIdentical(srcStat, attrs.CopyFrom, dst)
	if err != nil {
		return types.ResultFail, err
	}
	if same {
		return obstruction, nil
	}

	if err := CopyRegularFileDisk(attrs.CopyFrom, dst); err != nil {
		return types.ResultFail, err
	}
	return types.MergeResult(obstruction, types.ResultChange), nil
}

func (a *Actuator) convergeEdit(path string, attrs *types.FileAttrs) (types.PromiseResult, error) {
	defaults := types.EditDefaults{LineSeparator: "\n"}
	if attrs.EditDefaults != nil {
		defaults = *attrs.EditDefaults
	}

	info, statErr := os.Lstat(path)

	if statErr == nil && !info.Mode().IsRegular() {
		obstruction, err := MoveObstruction(path, *attrs, a.StartTime, a.RepositoryDir)
		if err != nil {
			return types.ResultFail, err
		}
		if obstruction == types.ResultFail {
			return types.ResultFail, nil
		}
		statErr = os.ErrNotExist // the obstruction is gone; path no longer exists
	}

	if os.IsNotExist(statErr) {
		if len(attrs.DesiredLines) == 0 {
			return types.ResultNoop, nil
		}
		if err := writeLines(path, attrs.DesiredLines, defaults.LineSeparator); err != nil {
			return types.ResultFail, err
		}
		return types.ResultChange, nil
	}
	if statErr != nil {
		return types.ResultFail, statErr
	}

	diff, err := CompareToFile(attrs.DesiredLines, path, defaults, false)
	if err != nil {
		return types.ResultFail, err
	}
	if diff.Equal {
		return types.ResultNoop, nil
	}

	callback := func(scratch string) error {
		return writeLines(scratch, attrs.DesiredLines, defaults.LineSeparator)
	}
	if err := SaveAsFile(callback, path, *attrs, a.StartTime, a.RepositoryDir); err != nil {
		return types.ResultFail, err
	}
	return types.ResultChange, nil
}

// statSource returns the stat metadata for a CopyFrom source, consulting
// a.Stat first. A cache miss falls through to a local stat() call — the
// actuator-local stand-in for the (external) network transport a real
// stat of a remote source would require — and the result, including
// failures, is cached so repeated iterations copying from the same
// source within this run don't restat it.
func (a *Actuator) statSource(path string) (types.StatCacheEntry, error) {
	if entry, ok := a.Stat.Get(sourceServer, path); ok {
		if entry.Failed {
			return entry, os.ErrNotExist
		}
		return entry, nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		a.Stat.Put(types.StatCacheEntry{Server: sourceServer, Path: path, Failed: true})
		return types.StatCacheEntry{Server: sourceServer, Path: path, Failed: true}, err
	}

	entry := types.StatCacheEntry{
		Server: sourceServer,
		Path:   path,
		Size:   info.Size(),
		Mode:   uint32(info.Mode()),
		MTime:  info.ModTime(),
	}
	a.Stat.Put(entry)
	return entry, nil
}

// filesIdentical reports whether b already holds the contents srcStat
// describes. A size mismatch against b's current stat answers the
// question without reading either file; only a size match falls through
// to a full SHA-256 comparison.
func filesIdentical(srcStat types.StatCacheEntry, a, b string) (bool, error) {
	dstInfo, err := os.Lstat(b)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if dstInfo.Size() != srcStat.Size {
		return false, nil
	}

	ha, err := hashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := hashFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ha, hb), nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
