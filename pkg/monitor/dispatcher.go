// Package monitor provides a registry of check routines per monitor
// type and a dispatcher that runs them with per-check fault isolation.
//
// A concrete monitor declares its type and checks with a Registry
// (usually the DefaultRegistry, at package init), embeds a Dispatcher,
// and implements the Monitor interface's single method,
// DispatchNotification, which receives the outcome of every failed
// check. CheckAll runs every registered check for the type exactly
// once, in registry order; a check that returns an error or panics is
// reported to the notifier and never prevents the remaining checks
// from running.
package monitor

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Monitor is implemented by concrete monitor types. DispatchNotification
// is the sole required extension point: it receives the definition of
// the check that failed and the captured outcome, and must not block the
// dispatcher on its return value (it has none).
type Monitor interface {
	DispatchNotification(check CheckDef, outcome Outcome)
}

// ErrNilNotifier is returned by New when the monitor implementation is
// missing. This is a composition error: a monitor without a
// notification implementation is incomplete and must not be constructed.
var ErrNilNotifier = errors.New("monitor: notifier implementation is required")

// Dispatcher runs the registered checks of one monitor type. Concrete
// monitors embed a *Dispatcher created by New.
//
// A Dispatcher is not safe for concurrent CheckAll calls on the same
// instance; callers serialize.
type Dispatcher struct {
	typeName string
	registry *Registry
	self     Monitor
}

// New creates a Dispatcher for the given monitor type. A nil registry
// selects the DefaultRegistry. A nil self is a composition error
// reported as ErrNilNotifier.
func New(typeName string, registry *Registry, self Monitor) (*Dispatcher, error) {
	if typeName == "" {
		return nil, fmt.Errorf("monitor: type name must not be empty")
	}
	if self == nil {
		return nil, fmt.Errorf("monitor: type %q: %w", typeName, ErrNilNotifier)
	}
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Dispatcher{
		typeName: typeName,
		registry: registry,
		self:     self,
	}, nil
}

// TypeName returns the monitor type this dispatcher runs checks for.
func (d *Dispatcher) TypeName() string {
	return d.typeName
}

// CheckAll invokes every check registered for the dispatcher's type
// exactly once, in registry order. Each invocation is fault-isolated: a
// returned error or a panic is captured into an Outcome and forwarded
// to the monitor's DispatchNotification before the next check runs. A
// failing check never aborts the remaining checks.
//
// CheckAll itself returns an error only when the iteration machinery is
// misconfigured, i.e. the registry cannot resolve the type.
func (d *Dispatcher) CheckAll() error {
	defs, err := d.registry.Checks(d.typeName)
	if err != nil {
		return fmt.Errorf("monitor: resolving checks: %w", err)
	}

	for _, def := range defs {
		outcome := runCheck(def, d.self)
		if outcome.Failed {
			d.self.DispatchNotification(def, outcome)
		}
	}
	return nil
}

// runCheck invokes one check routine and captures any failure. The
// deferred recover turns a panic into a failed Outcome with the
// goroutine stack, so the caller's loop continues unconditionally.
func runCheck(def CheckDef, m Monitor) (outcome Outcome) {
	outcome = Outcome{CheckName: def.Name}

	defer func() {
		if r := recover(); r != nil {
			outcome.Failed = true
			outcome.Kind = fmt.Sprintf("%T", r)
			outcome.Message = fmt.Sprint(r)
			outcome.Trace = string(debug.Stack())
		}
	}()

	if err := def.fn(m); err != nil {
		outcome.Failed = true
		outcome.Kind = fmt.Sprintf("%T", err)
		outcome.Message = err.Error()
	}
	return outcome
}
