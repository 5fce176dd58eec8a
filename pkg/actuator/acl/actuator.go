package acl

import (
	"github.com/cfengine/promise-engine/pkg/log"
	"github.com/cfengine/promise-engine/pkg/metrics"
	"github.com/cfengine/promise-engine/pkg/types"
)

// Actuator validates and applies ACL promises.
type Actuator struct {
	Posix Backend
	NTFS  Backend
	IsDir func(string) bool // overridable for tests; defaults to os.Stat-based check
}

// New returns an Actuator backed by the real setfacl(1) collaborator.
func New() *Actuator {
	return &Actuator{Posix: PosixACLBackend{}, NTFS: NTFSACLBackend{}}
}

// Evaluate implements evaluator.Actuator. concretePromiser is the
// filesystem path this expansion promises to converge.
func (a *Actuator) Evaluate(p types.Promise, concretePromiser string) (types.PromiseResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ActuatorDuration, p.Type.String())

	attrs := p.Attrs.ACL
	if attrs == nil {
		attrs = &types.ACLAttrs{}
	}
	logger := log.WithPromise(p.Handle, p.Type.String())

	if err := ValidateEntries(attrs.ACEs, attrs.Type); err != nil {
		logger.Error().Err(err).Str("path", concretePromiser).Msg("acl syntax error")
		return types.ResultInterrupted, err
	}
	if err := validateDefaultACL(concretePromiser, attrs.DefaultACL, a.IsDir); err != nil {
		logger.Error().Err(err).Str("path", concretePromiser).Msg("acl syntax error")
		return types.ResultInterrupted, err
	}

	backend := a.backendFor(attrs.Type)
	if backend == nil {
		return types.ResultNoop, nil
	}

	result, err := backend.Apply(concretePromiser, attrs.Method, attrs.ACEs)
	if err != nil {
		logger.Error().Err(err).Str("path", concretePromiser).Msg("acl promise failed")
		return types.ResultFail, err
	}
	if result == types.ResultChange {
		metrics.ActuatorRepairsTotal.WithLabelValues(p.Type.String()).Inc()
	}
	return result, nil
}

func (a *Actuator) backendFor(t types.ACLType) Backend {
	switch t {
	case types.ACLNTFS:
		return a.NTFS
	default: // ACLGeneric and ACLPosix both route through the POSIX backend on this platform
		return a.Posix
	}
}
