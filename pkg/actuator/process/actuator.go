package process

import (
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/cfengine/promise-engine/pkg/classes"
	"github.com/cfengine/promise-engine/pkg/log"
	"github.com/cfengine/promise-engine/pkg/metrics"
	"github.com/cfengine/promise-engine/pkg/queue"
	"github.com/cfengine/promise-engine/pkg/types"
)

// Actuator converges process promises against a live Table snapshot.
type Actuator struct {
	Table    Table
	Signaler Signaler
	Classes  *classes.Context
	OwnPID   int // defaults to os.Getpid() when zero

	sleepOnce  sync.Once
	sleepQueue *queue.Queue[sleepJob]
}

// sleepJob is one "<N>s" signal-spec directive handed to the background
// sleep worker; done is closed once the worker has slept the full
// duration, which is what sendSignals actually blocks on.
type sleepJob struct {
	duration time.Duration
	done     chan struct{}
}

// New returns an Actuator backed by the real host process table.
func New(classCtx *classes.Context) *Actuator {
	return &Actuator{Table: GopsutilTable{}, Signaler: OSSignaler{}, Classes: classCtx, OwnPID: os.Getpid()}
}

func classScope(bundle string) types.ClassScope {
	if bundle == "" {
		return types.ClassScopeNamespace
	}
	return types.ClassScopeBundle
}

// Evaluate implements evaluator.Actuator. concretePromiser is the regex
// over process command lines this expansion promises to converge.
func (a *Actuator) Evaluate(p types.Promise, concretePromiser string) (types.PromiseResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ActuatorDuration, p.Type.String())

	attrs := p.Attrs.Process
	if attrs == nil {
		attrs = &types.ProcessAttrs{}
	}
	logger := log.WithPromise(p.Handle, p.Type.String())

	re, err := regexp.Compile(concretePromiser)
	if err != nil {
		return types.ResultFail, fmt.Errorf("process: invalid promiser regex %q: %w", concretePromiser, err)
	}

	snapshot, err := a.Table.Snapshot()
	if err != nil {
		return types.ResultFail, fmt.Errorf("process: snapshot process table: %w", err)
	}

	matches, err := Match(snapshot, re, attrs.ProcessSelect)
	if err != nil {
		return types.ResultFail, fmt.Errorf("process: evaluate process_select: %w", err)
	}

	result := types.ResultNoop
	scope := classScope(p.Bundle)

	if attrs.HasCountRange {
		inRange := len(matches) >= attrs.ProcessCountRange[0] && len(matches) <= attrs.ProcessCountRange[1]
		names := attrs.OutOfRangeDefine
		if inRange {
			names = attrs.InRangeDefine
		}
		for _, name := range names {
			a.Classes.Define(name, scope, p.Bundle, nil)
		}
	}

	if attrs.ProcessStop != "" && len(matches) > 0 {
		if err := runStop(attrs.ProcessStop); err != nil {
			logger.Error().Err(err).Msg("process stop command failed")
			result = types.MergeResult(result, types.ResultFail)
		} else {
			result = types.MergeResult(result, types.ResultChange)
		}
	}

	killDelivered, err := a.sendSignals(matches, attrs.Signals)
	if err != nil {
		return types.ResultFail, err
	}
	if killDelivered {
		result = types.MergeResult(result, types.ResultChange)
	}

	if attrs.RestartClass != "" && (killDelivered || len(matches) == 0) {
		a.Classes.Define(attrs.RestartClass, scope, p.Bundle, nil)
	}

	if result == types.ResultChange {
		metrics.ActuatorRepairsTotal.WithLabelValues(p.Type.String()).Inc()
	}
	return result, nil
}

// sendSignals delivers every element of signals, in order, to every
// matched process still allowed by signalAllowed. It reports whether any
// signal that would terminate the process was actually delivered.
func (a *Actuator) sendSignals(matches []Entry, signals []string) (bool, error) {
	soleSignal := countActualSignals(signals) == 1
	killDelivered := false

	for _, spec := range signals {
		sig, sleep, isSleep, err := parseSignalSpec(spec)
		if err != nil {
			return killDelivered, err
		}
		if isSleep {
			a.sleepViaQueue(sleep)
			continue
		}
		for _, e := range matches {
			if !signalAllowed(e.PID, sig, soleSignal, a.OwnPID) {
				continue
			}
			if err := a.Signaler.Signal(e.PID, sig); err != nil {
				continue
			}
			if isKillSignal(sig) {
				killDelivered = true
			}
		}
	}
	return killDelivered, nil
}

// sleepViaQueue runs a "<N>s" signal-spec directive through a background
// consumer instead of blocking the caller directly in time.Sleep: it
// hands the sleep off to a worker goroutine fed by a.sleepQueue and waits
// on the job's done channel, so the actual sleeping never runs on this
// goroutine. The worker starts lazily on first use, since most promises
// never carry a sleep directive at all.
func (a *Actuator) sleepViaQueue(d time.Duration) {
	a.sleepOnce.Do(func() {
		a.sleepQueue = queue.New[sleepJob](0)
		go a.runSleepWorker()
	})

	job := sleepJob{duration: d, done: make(chan struct{})}
	a.sleepQueue.Push(job)
	<-job.done
}

// runSleepWorker drains a.sleepQueue for the lifetime of the Actuator,
// performing each queued sleep and signaling its completion.
func (a *Actuator) runSleepWorker() {
	for {
		job, ok := a.sleepQueue.Pop(time.Second)
		if !ok {
			continue
		}
		time.Sleep(job.duration)
		close(job.done)
	}
}

func countActualSignals(signals []string) int {
	n := 0
	for _, s := range signals {
		if !sleepSpec.MatchString(s) {
			n++
		}
	}
	return n
}
