// Package event_bus keeps listeners registered under string tags and dispatches each tag once.
//
// Listeners of a tag run synchronously, in ascending priority order, on the goroutine that
// triggers the tag. Listeners registered with equal priority run in registration order. After a
// successful trigger the tag is done: its listeners are dropped, new registrations are rejected
// and further triggers do nothing.
//
// When a listener returns an error or panics, the remaining listeners are skipped and the tag is
// left exactly as it was before the trigger, so the trigger can be retried.
package event_bus

import (
	"fmt"
	"strings"
)

const (
	KernelEventApplicationLaunched    = "kernelEvent.ApplicationLaunched"
	KernelEventApplicationTermination = "kernelEvent.ApplicationTermination"
)

// DonePolicy decides whether triggering a tag that has no listeners marks it done.
type DonePolicy int

const (
	// DoneAlways marks a tag done on its first trigger, listeners or not.
	DoneAlways DonePolicy = iota
	// DoneWhenFired marks a tag done only when at least one listener ran.
	DoneWhenFired
)

func (p DonePolicy) String() string {
	switch p {
	case DoneAlways:
		return "always"
	case DoneWhenFired:
		return "when_fired"
	default:
		return fmt.Sprintf("DonePolicy(%d)", int(p))
	}
}

func ParseDonePolicy(value string) (DonePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "always":
		return DoneAlways, nil
	case "when_fired":
		return DoneWhenFired, nil
	}

	return DoneAlways, fmt.Errorf("unknown done policy %q", value)
}
