package activation

import (
	"time"

	"tradecontrol/src/model"
)

type EngineState string

const (
	EngineStopped EngineState = "STOPPED"
	EngineRunning EngineState = "RUNNING"
)

type EngineAction string

const (
	ActionStart EngineAction = "start"
	ActionStop  EngineAction = "stop"
)

// transitions lists the only edges of the engine state machine.
var transitions = map[EngineState]map[EngineAction]EngineState{
	EngineStopped: {ActionStart: EngineRunning},
	EngineRunning: {ActionStop: EngineStopped},
}

// Next returns the state reached by applying action, or false when the
// transition does not exist.
func Next(from EngineState, action EngineAction) (EngineState, bool) {
	to, ok := transitions[from][action]
	return to, ok
}

// CanTransition reports whether action is allowed from state.
func CanTransition(from EngineState, action EngineAction) bool {
	_, ok := Next(from, action)
	return ok
}

// Engine is the reconciled view of a user's engine_status row.
type Engine struct {
	IsRunning     bool       `json:"is_running"`
	LastStartedAt *time.Time `json:"last_started_at,omitempty"`
	LastStoppedAt *time.Time `json:"last_stopped_at,omitempty"`
}

func (e Engine) State() EngineState {
	if e.IsRunning {
		return EngineRunning
	}
	return EngineStopped
}

// reconcileEngine derives the engine view from a stored row. When both
// stamps are present the later one decides whether the engine is running.
func reconcileEngine(row *model.EngineStatus) (Engine, bool) {
	if row == nil {
		return Engine{}, false
	}

	e := Engine{
		IsRunning:     row.IsRunning,
		LastStartedAt: row.LastStartedAt,
		LastStoppedAt: row.LastStoppedAt,
	}
	if e.LastStartedAt == nil || e.LastStoppedAt == nil {
		return e, false
	}

	derived := e.LastStartedAt.After(*e.LastStoppedAt)
	if derived == e.IsRunning {
		return e, false
	}
	e.IsRunning = derived
	return e, true
}
