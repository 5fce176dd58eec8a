package evaluator

import (
	"fmt"
	"time"

	"github.com/cfengine/promise-engine/pkg/classes"
	"github.com/cfengine/promise-engine/pkg/iteration"
	"github.com/cfengine/promise-engine/pkg/metrics"
	"github.com/cfengine/promise-engine/pkg/types"
)

// Actuator converges one concrete promise expansion and reports the
// outcome. concretePromiser is the already-expanded promiser string for
// this particular iteration-engine emission.
type Actuator interface {
	Evaluate(promise types.Promise, concretePromiser string) (types.PromiseResult, error)
}

// Dispatcher routes a promise to the actuator registered for its type. A
// nil field means that promise type can't be evaluated; dispatching to it
// fails the promise rather than panicking.
type Dispatcher struct {
	File    Actuator
	Process Actuator
	Storage Actuator
	ACL     Actuator
}

func (d Dispatcher) dispatch(p types.Promise, concretePromiser string) (types.PromiseResult, error) {
	var a Actuator
	switch p.Type {
	case types.PromiseFile:
		a = d.File
	case types.PromiseProcess:
		a = d.Process
	case types.PromiseStorage:
		a = d.Storage
	case types.PromiseACL:
		a = d.ACL
	}
	if a == nil {
		return types.ResultFail, fmt.Errorf("evaluator: no actuator registered for promise type %s", p.Type)
	}
	return a.Evaluate(p, concretePromiser)
}

// Evaluator runs promises against a Dispatcher, a shared lock manager, and
// the class context each promise's class guard and class-definition
// attributes are evaluated against.
type Evaluator struct {
	Dispatcher Dispatcher
	Locks      *LockManager
	Classes    *classes.Context
	Now        func() time.Time // overridable for tests; defaults to time.Now
}

func (e *Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// EvaluatePromise runs every concrete expansion of p and returns the
// merged outcome. bindings resolves the variable references p.Promiser
// may contain; bundle identifies the frame p is being evaluated in, used
// for bundle-scoped class definitions. An expansion that errors counts as
// ResultFail; the first such error is returned alongside the merged outcome.
func (e *Evaluator) EvaluatePromise(p types.Promise, bindings iteration.Bindings, bundle string) (types.PromiseResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.EvaluationDuration, p.Type.String())

	if p.ClassGuard != "" {
		ok, err := e.Classes.Evaluate(p.ClassGuard)
		if err != nil {
			return types.ResultFail, fmt.Errorf("evaluator: class guard %q: %w", p.ClassGuard, err)
		}
		if !ok {
			metrics.PromisesEvaluatedTotal.WithLabelValues(p.Type.String(), types.ResultNoop.String()).Inc()
			return types.ResultNoop, nil
		}
	}

	it := iteration.Prepare(p.Promiser, bindings)

	aggregate := types.ResultSkipped
	anyExpansion := false
	var firstErr error
	now := e.now()

	for it.HasMore() {
		concretePromiser, ok := it.Next()
		if !ok {
			break
		}
		anyExpansion = true
		metrics.PromiseExpansionsTotal.Inc()

		result, err := e.evaluateOne(p, concretePromiser, now)
		if err != nil {
			result = types.ResultFail
			if firstErr == nil {
				firstErr = err
			}
		}
		e.applyClassDefinitions(p, bundle, result)
		metrics.PromisesEvaluatedTotal.WithLabelValues(p.Type.String(), result.String()).Inc()
		aggregate = types.MergeResult(aggregate, result)
	}

	if !anyExpansion {
		return types.ResultNoop, nil
	}
	return aggregate, firstErr
}

func (e *Evaluator) evaluateOne(p types.Promise, concretePromiser string, now time.Time) (types.PromiseResult, error) {
	lockName := LockName(p.Type, concretePromiser, p.Attrs)
	acquired, err := e.Locks.Acquire(lockName, p.Attrs.Transaction.IfElapsed, p.Attrs.Transaction.ExpireAfter, now)
	if err != nil {
		return types.ResultFail, err
	}
	if !acquired {
		return types.ResultSkipped, nil
	}
	defer e.Locks.Release(lockName, now)

	result, err := e.Dispatcher.dispatch(p, concretePromiser)
	if err != nil {
		return types.ResultFail, err
	}
	if p.Attrs.Transaction.Action == "warn" && result == types.ResultChange {
		result = types.ResultWarn
	}
	return result, nil
}

// applyClassDefinitions defines the classes p's attribute bag requests in
// response to result. DefineOnRepair fires alongside DefineOnChange: this
// engine doesn't distinguish sub-kinds of "something changed" beyond the
// single ResultChange outcome.
func (e *Evaluator) applyClassDefinitions(p types.Promise, bundle string, result types.PromiseResult) {
	scope := types.ClassScopeBundle
	if bundle == "" {
		scope = types.ClassScopeNamespace
	}

	var names []string
	switch result {
	case types.ResultChange:
		names = append(names, p.Attrs.Transaction.DefineOnChange...)
		names = append(names, p.Attrs.Transaction.DefineOnRepair...)
	case types.ResultFail, types.ResultDenied, types.ResultInterrupted:
		names = append(names, p.Attrs.Transaction.DefineOnFail...)
	}
	for _, name := range names {
		e.Classes.Define(name, scope, bundle, map[string]struct{}{"source=promise": {}})
	}
}

// BundleResult aggregates the merged outcomes of every promise evaluated
// within one bundle.
type BundleResult struct {
	Bundle  string
	Results []types.PromiseResult
}

// Merged returns the single most-severe outcome across every promise in
// the bundle, or ResultNoop if it evaluated none.
func (b BundleResult) Merged() types.PromiseResult {
	agg := types.ResultSkipped
	any := false
	for _, r := range b.Results {
		agg = types.MergeResult(agg, r)
		any = true
	}
	if !any {
		return types.ResultNoop
	}
	return agg
}

// EvaluateBundle evaluates every promise in order, in the given bundle
// frame, and pops the bundle's local classes once done (unless bundle is
// the common bundle's empty-string frame, which never held bundle-scoped
// classes in the first place).
func (e *Evaluator) EvaluateBundle(bundle string, promises []types.Promise, bindingsFor func(types.Promise) iteration.Bindings) BundleResult {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.BundleEvaluationDuration)

	res := BundleResult{Bundle: bundle}
	for _, p := range promises {
		r, err := e.EvaluatePromise(p, bindingsFor(p), bundle)
		if err != nil {
			r = types.ResultFail
		}
		res.Results = append(res.Results, r)
	}
	if bundle != "" {
		e.Classes.PopBundleFrame(bundle)
	}
	return res
}
