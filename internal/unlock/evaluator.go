package unlock

import (
	"fmt"
	"slices"
	"time"
)

// UnknownPolicy controls how Unknown conditions are treated.
type UnknownPolicy string

const (
	// FailOpen skips unknown conditions: they restrict nothing.
	FailOpen UnknownPolicy = "fail-open"
	// FailClosed locks the item on the first unknown condition.
	FailClosed UnknownPolicy = "fail-closed"
)

const (
	defaultStampName = "Special stamp"
	defaultTaskName  = "Previous task"

	hintSignIn      = "Sign in required"
	hintLocation    = "Location access required"
	hintUnavailable = "Currently unavailable"

	// displayTimeLayout is how time window boundaries appear in hints.
	displayTimeLayout = "Jan 2, 2006 3:04 PM MST"
)

// ParsePolicy maps a configuration value to a policy, defaulting to FailOpen.
func ParsePolicy(s string) UnknownPolicy {
	if UnknownPolicy(s) == FailClosed {
		return FailClosed
	}
	return FailOpen
}

// Evaluator evaluates condition lists. The zero value uses FailOpen and is
// safe for concurrent use.
type Evaluator struct {
	Policy UnknownPolicy
}

// Evaluate checks conditions against ctx using the wall clock.
func Evaluate(conds []Condition, ctx Context) Result {
	return Evaluator{}.EvaluateAt(conds, ctx, time.Now())
}

// Evaluate checks conditions against ctx using the wall clock.
func (e Evaluator) Evaluate(conds []Condition, ctx Context) Result {
	return e.EvaluateAt(conds, ctx, time.Now())
}

// EvaluateAt checks conditions in order against ctx at the instant now and
// returns the hint of the first failing one.
func (e Evaluator) EvaluateAt(conds []Condition, ctx Context, now time.Time) Result {
	for _, cond := range conds {
		if ok, hint := e.check(cond, ctx, now); !ok {
			return Result{IsUnlocked: false, Hint: hint}
		}
	}
	return Result{IsUnlocked: true}
}

func (e Evaluator) check(cond Condition, ctx Context, now time.Time) (bool, string) {
	switch c := cond.(type) {
	case StampRequired:
		if c.StampID != "" && slices.Contains(ctx.Stamps, c.StampID) {
			return true, ""
		}
		return false, "Requires stamp: " + orDefault(c.StampName, defaultStampName)
	case TaskRequired:
		if c.TaskID != "" && slices.Contains(ctx.CompletedTasks, c.TaskID) {
			return true, ""
		}
		return false, "Complete task: " + orDefault(c.TaskName, defaultTaskName)
	case TimeWindow:
		if c.Start.IsZero() || c.End.IsZero() {
			return false, hintUnavailable
		}
		if now.Before(c.Start) || now.After(c.End) {
			return false, fmt.Sprintf("Available from %s to %s",
				c.Start.UTC().Format(displayTimeLayout), c.End.UTC().Format(displayTimeLayout))
		}
		return true, ""
	case Geofence:
		if ctx.Location == nil {
			return false, hintLocation
		}
		return true, ""
	case SignInRequired:
		if ctx.UserID == "" {
			return false, hintSignIn
		}
		return true, ""
	case Unknown:
		if e.Policy == FailClosed {
			return false, hintUnavailable
		}
		return true, ""
	default:
		// nil entries
		return true, ""
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
