package storage

import (
	"os"

	"github.com/cfengine/promise-engine/pkg/log"
	"github.com/cfengine/promise-engine/pkg/metrics"
	"github.com/cfengine/promise-engine/pkg/types"
)

// Actuator converges storage promises: mounts, volume sanity scans, and
// free-space checks.
type Actuator struct {
	Mounts       MountTable
	Mounter      Mounter
	DiskUsage    DiskUsager
	IsPrivileged func() bool // defaults to checking the effective uid is 0
}

// New returns an Actuator backed by the real host mount table and disk
// usage collaborators.
func New() *Actuator {
	return &Actuator{
		Mounts:    GopsutilMountTable{},
		Mounter:   OSMounter{},
		DiskUsage: GopsutilDiskUsage{},
	}
}

func (a *Actuator) privileged() bool {
	if a.IsPrivileged != nil {
		return a.IsPrivileged()
	}
	return os.Geteuid() == 0
}

// Evaluate implements evaluator.Actuator. concretePromiser is the
// filesystem path this expansion promises to converge.
func (a *Actuator) Evaluate(p types.Promise, concretePromiser string) (types.PromiseResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ActuatorDuration, p.Type.String())

	attrs := p.Attrs.Storage
	if attrs == nil {
		attrs = &types.StorageAttrs{}
	}
	logger := log.WithPromise(p.Handle, p.Type.String())

	result := types.ResultNoop

	if hasMount(attrs) {
		mountResult, err := a.convergeMount(concretePromiser, attrs)
		if err != nil {
			logger.Error().Err(err).Str("path", concretePromiser).Msg("storage mount promise failed")
			result = types.MergeResult(result, types.ResultFail)
		} else {
			result = types.MergeResult(result, mountResult)
		}
	}

	if attrs.VolumeCheck {
		volResult, err := a.convergeVolume(concretePromiser, attrs)
		if err != nil {
			logger.Error().Err(err).Str("path", concretePromiser).Msg("storage volume check failed")
			result = types.MergeResult(result, types.ResultFail)
		} else {
			result = types.MergeResult(result, volResult)
		}

		if attrs.FreeSpaceBytes != 0 {
			fsResult, err := a.convergeFreeSpace(concretePromiser, attrs)
			if err != nil {
				logger.Error().Err(err).Str("path", concretePromiser).Msg("storage free space check failed")
				result = types.MergeResult(result, types.ResultFail)
			} else {
				result = types.MergeResult(result, fsResult)
			}
		}
	}

	if result == types.ResultChange {
		metrics.ActuatorRepairsTotal.WithLabelValues(p.Type.String()).Inc()
	}
	return result, nil
}

func hasMount(attrs *types.StorageAttrs) bool {
	return attrs.MountSource != "" || attrs.MountServer != "" || attrs.Unmount
}

// convergeMount implements spec.md §4.I's mount bullet: require root,
// load the mount table, compare against the promised source/options, and
// either mount or unmount to match.
func (a *Actuator) convergeMount(path string, attrs *types.StorageAttrs) (types.PromiseResult, error) {
	if !a.privileged() {
		return types.ResultInterrupted, nil
	}

	table, err := a.Mounts.Load()
	if err != nil {
		return types.ResultFail, err
	}

	found, correct := mountedCorrectly(table, path, attrs.MountSource)

	if attrs.Unmount {
		if !found {
			return types.ResultNoop, nil
		}
		if err := a.Mounter.Unmount(path); err != nil {
			return types.ResultFail, err
		}
		return types.ResultChange, nil
	}

	if found && correct {
		return types.ResultNoop, nil
	}

	if err := a.Mounter.Mount(attrs.MountSource, path, "", attrs.MountOptions); err != nil {
		return types.ResultFail, err
	}
	return types.ResultChange, nil
}

// convergeVolume implements the one-level scan and sensible-size/count
// checks. Neither is a repair primitive - they only ever report noop,
// interrupted (a check failed) or fail (the scan itself errored), matching VerifyFileSystem's read-only nature in
// original_source/cf-agent/verify_storage.c.
func (a *Actuator) convergeVolume(path string, attrs *types.StorageAttrs) (types.PromiseResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return types.ResultNoop, nil
	}
	if err != nil {
		return types.ResultFail, err
	}
	if !info.IsDir() {
		return types.ResultNoop, nil
	}

	summary, err := scanVolume(path)
	if err != nil {
		return types.ResultFail, err
	}
	if ok, _ := sensible(summary, attrs.MinFileCount, attrs.MinBytes); !ok {
		return types.ResultInterrupted, nil
	}
	return types.ResultNoop, nil
}

// convergeFreeSpace implements the free-space bullet, honoring
// check_foreign's mount-table-based skip.
func (a *Actuator) convergeFreeSpace(path string, attrs *types.StorageAttrs) (types.PromiseResult, error) {
	if !attrs.CheckForeign {
		foreign, err := a.isForeign(path)
		if err != nil {
			return types.ResultFail, err
		}
		if foreign {
			return types.ResultNoop, nil
		}
	}

	ok, _, err := checkFreeSpace(a.DiskUsage, path, attrs.FreeSpaceBytes)
	if err != nil {
		return types.ResultFail, err
	}
	if !ok {
		return types.ResultFail, nil
	}
	return types.ResultNoop, nil
}

func (a *Actuator) isForeign(path string) (bool, error) {
	crosses, err := crossesFilesystem(path)
	if err != nil || !crosses {
		return false, err
	}
	table, err := a.Mounts.Load()
	if err != nil {
		return false, err
	}
	return isForeignMount(table, path), nil
}
