// Package guard decides whether a visitor may see a page, must wait for the
// session to settle, or has to be sent elsewhere.
package guard

import "fmt"

// Action is what the caller should do with the guarded content.
type Action int

const (
	// ActionWait shows a neutral placeholder; no navigation happens.
	ActionWait Action = iota
	// ActionRedirect navigates to Decision.Target.
	ActionRedirect
	// ActionRender shows the guarded content.
	ActionRender
)

func (a Action) String() string {
	switch a {
	case ActionWait:
		return "wait"
	case ActionRedirect:
		return "redirect"
	case ActionRender:
		return "render"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is the outcome of a guard evaluation. Replace asks for the current
// history entry to be replaced so the visitor cannot go back into the page.
type Decision struct {
	Action  Action
	Target  string
	Replace bool
}

// Wait returns the waiting decision.
func Wait() Decision { return Decision{Action: ActionWait} }

// Render returns the admitting decision.
func Render() Decision { return Decision{Action: ActionRender} }

// RedirectTo returns a history-replacing redirect to target.
func RedirectTo(target string) Decision {
	return Decision{Action: ActionRedirect, Target: target, Replace: true}
}

func (d Decision) String() string {
	if d.Action == ActionRedirect {
		return fmt.Sprintf("redirect(%s)", d.Target)
	}
	return d.Action.String()
}
