package config

import (
	"fmt"
	"math"

	"github.com/bassbeaver/gevents/event_bus/listener"
	"github.com/bassbeaver/gevents/helper"
)

// EventListenerConfig declares one listener: Listener is "<service alias>:<method name>".
type EventListenerConfig struct {
	EventName string `mapstructure:"event"`
	Listener  string
	Priority  *int
}

func (c *EventListenerConfig) ListenerAlias() string {
	return helper.GetStringPart(c.Listener, ":", 0)
}

func (c *EventListenerConfig) ListenerMethod() string {
	return helper.GetStringPart(c.Listener, ":", 1)
}

// ListenerPriority returns the configured priority, listener.DefaultPriority when it is omitted.
func (c *EventListenerConfig) ListenerPriority() (uint8, error) {
	if nil == c.Priority {
		return listener.DefaultPriority, nil
	}

	if *c.Priority < 0 || *c.Priority > math.MaxUint8 {
		return 0, fmt.Errorf("priority %d of listener %s is out of range 0..255", *c.Priority, c.Listener)
	}

	return uint8(*c.Priority), nil
}

func (c *EventListenerConfig) Validate() error {
	if "" == c.EventName {
		return fmt.Errorf("listener %s has no event", c.Listener)
	}

	if "" == c.ListenerAlias() || "" == c.ListenerMethod() {
		return fmt.Errorf("listener %q of event %s is not in alias:method form", c.Listener, c.EventName)
	}

	_, priorityError := c.ListenerPriority()

	return priorityError
}
