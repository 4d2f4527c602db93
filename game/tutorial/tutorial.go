// Package tutorial implements the scripted guard that sits in front of a round
// during the training session. It only forwards the action prescribed by the
// current script step and never looks at the round state itself.
package tutorial

import (
	"sync"

	"github.com/wricardo/mask-the-sequence/game/engine"
)

// AnySlot marks a step whose action carries no slot target
const AnySlot = -1

// Actor is whatever ultimately executes round actions
type Actor interface {
	Do(action engine.Action) (engine.Result, error)
}

// Step is one scripted instruction
type Step struct {
	Required  engine.ActionType `json:"required_action"`
	Slot      int               `json:"allowed_slot"`
	Text      string            `json:"text"`
	Highlight string            `json:"highlight"`
}

// Matches reports whether an action satisfies the step
func (s Step) Matches(a engine.Action) bool {
	if a.Type != s.Required {
		return false
	}
	return s.Slot == AnySlot || a.Slot == s.Slot
}

// Interceptor guards an Actor with a fixed script
type Interceptor struct {
	next   Actor
	script []Step
	cursor int
	mu     sync.Mutex
}

// NewInterceptor wraps next with the given script. A nil script uses DefaultScript.
func NewInterceptor(next Actor, script []Step) *Interceptor {
	if script == nil {
		script = DefaultScript()
	}
	return &Interceptor{next: next, script: append([]Step(nil), script...)}
}

// Do forwards a matching action and advances the script when the actor
// accepts it. Mismatches are dropped: accepted is false and err is nil.
// Abandon always passes through so the tutorial can be skipped. The void
// toggle is a UI signal: a scripted toggle is accepted here and never
// reaches the actor.
func (i *Interceptor) Do(a engine.Action) (res engine.Result, accepted bool, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if a.Type == engine.ActionAbandon {
		res, err = i.next.Do(a)
		return res, true, err
	}

	if i.cursor >= len(i.script) || !i.script[i.cursor].Matches(a) {
		return engine.Result{}, false, nil
	}

	if a.Type == engine.ActionToggleVoid {
		i.cursor++
		return engine.Result{Action: a, Messages: []string{"Void mode toggled"}}, true, nil
	}

	res, err = i.next.Do(a)
	if err != nil {
		return res, true, err
	}
	i.cursor++
	return res, true, nil
}

// Current returns the active step, or false once the script is finished
func (i *Interceptor) Current() (Step, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cursor >= len(i.script) {
		return Step{}, false
	}
	return i.script[i.cursor], true
}

// Cursor returns the index of the active step
func (i *Interceptor) Cursor() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cursor
}

// Done reports whether every step has been completed
func (i *Interceptor) Done() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cursor >= len(i.script)
}

// Len returns the number of steps
func (i *Interceptor) Len() int {
	return len(i.script)
}
