package minigame

import (
	"encoding/json"
	"fmt"

	"github.com/wingnight/gameserver/content"
	"github.com/wingnight/gameserver/logger"
)

// Runtime is one live minigame instance: the resolved plugin plus its opaque
// state. Once failed it stays failed until the next initialization.
type Runtime struct {
	plugin Plugin
	state  State
	failed bool
}

// Type reports the minigame type of the underlying plugin.
func (rt *Runtime) Type() string {
	return rt.plugin.Type()
}

// Failed reports whether the runtime has been degraded to the safe shell.
func (rt *Runtime) Failed() bool {
	return rt.failed
}

// Orchestrator wraps every plugin call in isolation: errors and panics are
// logged as non-fatal runtime errors and degrade the runtime to the safe
// shell instead of propagating. The room keeps functioning regardless of
// what a plugin does.
type Orchestrator struct {
	registry  *Registry
	onFailure func(minigameType string)
}

func NewOrchestrator(registry *Registry) *Orchestrator {
	return &Orchestrator{registry: registry}
}

// OnFailure installs a hook invoked once per plugin failure, used for
// metrics.
func (o *Orchestrator) OnFailure(fn func(minigameType string)) {
	o.onFailure = fn
}

// Describe exposes the registry's capability metadata.
func (o *Orchestrator) Describe(minigameType string) Descriptor {
	return o.registry.Describe(minigameType)
}

// Start resolves the plugin for a minigame type and initializes a runtime.
// A failing plugin yields an already-degraded runtime, never an error.
func (o *Orchestrator) Start(minigameType string, ctx InitContext) *Runtime {
	rt := &Runtime{plugin: o.registry.Resolve(minigameType)}
	o.guard(rt, "initialize", func() error {
		s, err := rt.plugin.Initialize(ctx)
		if err != nil {
			return err
		}
		rt.state = s
		return nil
	})
	return rt
}

// Reduce applies a host action. The returned flag is true when the
// room-visible projection changed, which includes the transition to the
// safe shell on plugin failure.
func (o *Orchestrator) Reduce(rt *Runtime, env ActionEnvelope, pointsMax int, rules content.Rules, pack *content.Pack) bool {
	if rt == nil || rt.failed {
		return false
	}
	didMutate := false
	ok := o.guard(rt, "reduceAction", func() error {
		s, mutated, err := rt.plugin.ReduceAction(rt.state, env, pointsMax, rules, pack)
		if err != nil {
			return err
		}
		rt.state = s
		didMutate = mutated
		return nil
	})
	if !ok {
		return true // shell transition is visible
	}
	return didMutate
}

// SyncPendingPoints pushes host score overrides back into plugin state.
func (o *Orchestrator) SyncPendingPoints(rt *Runtime, pending map[string]int) {
	if rt == nil || rt.failed {
		return
	}
	o.guard(rt, "syncPendingPoints", func() error {
		s, err := rt.plugin.SyncPendingPoints(rt.state, pending)
		if err != nil {
			return err
		}
		rt.state = s
		return nil
	})
}

// SyncContent re-normalizes plugin state after a content change.
func (o *Orchestrator) SyncContent(rt *Runtime, pack *content.Pack) {
	if rt == nil || rt.failed {
		return
	}
	o.guard(rt, "syncContent", func() error {
		s, err := rt.plugin.SyncContent(rt.state, pack)
		if err != nil {
			return err
		}
		rt.state = s
		return nil
	})
}

// Project derives the per-role views and turn/points bookkeeping. A failed
// or nil runtime projects the safe shell.
func (o *Orchestrator) Project(rt *Runtime, rules content.Rules, pack *content.Pack) Projection {
	if rt == nil || rt.failed {
		return ShellProjection()
	}
	var proj Projection
	ok := o.guard(rt, "selectViews", func() error {
		hostView, err := rt.plugin.SelectHostView(rt.state, rules, pack)
		if err != nil {
			return err
		}
		displayView, err := rt.plugin.SelectDisplayView(rt.state, rules, pack)
		if err != nil {
			return err
		}
		proj = Projection{
			HostView:         hostView,
			DisplayView:      displayView,
			ActiveTurnTeamID: rt.plugin.ActiveTurnTeam(rt.state),
			PendingPoints:    rt.plugin.PendingPoints(rt.state),
		}
		return nil
	})
	if !ok {
		return ShellProjection()
	}
	return proj
}

// Capture serializes the runtime state for undo and host-takeover
// rehydration. Returns nil when the runtime cannot be captured.
func (o *Orchestrator) Capture(rt *Runtime) json.RawMessage {
	if rt == nil || rt.failed {
		return nil
	}
	var raw json.RawMessage
	o.guard(rt, "captureSnapshot", func() error {
		captured, err := rt.plugin.CaptureSnapshot(rt.state)
		if err != nil {
			return err
		}
		raw = captured
		return nil
	})
	return raw
}

// Restore rehydrates a runtime from a captured snapshot.
func (o *Orchestrator) Restore(rt *Runtime, raw json.RawMessage) {
	if rt == nil || rt.failed || raw == nil {
		return
	}
	o.guard(rt, "restoreSnapshot", func() error {
		s, err := rt.plugin.RestoreSnapshot(raw)
		if err != nil {
			return err
		}
		rt.state = s
		return nil
	})
}

// guard runs one plugin operation, converting errors and panics into the
// degraded-runtime state. Returns false when the runtime failed.
func (o *Orchestrator) guard(rt *Runtime, op string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(rt, op, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		o.fail(rt, op, err)
		return false
	}
	return true
}

func (o *Orchestrator) fail(rt *Runtime, op string, err error) {
	rt.failed = true
	rt.state = nil
	logger.Log.Errorw("minigame plugin failure, degrading to safe shell",
		"minigame", rt.plugin.Type(),
		"op", op,
		"error", err,
	)
	if o.onFailure != nil {
		o.onFailure(rt.plugin.Type())
	}
}
