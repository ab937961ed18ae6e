package event_bus

import (
	"context"
	"errors"

	kernelError "github.com/bassbeaver/gevents/error"
	"github.com/sethvargo/go-retry"
)

// RetryTrigger triggers tag and, while a listener fails, triggers it again according to backoff.
// Every attempt starts from the first listener of the tag. Errors other than listener failures
// are returned without retrying.
func RetryTrigger(ctx context.Context, r *EventRegistry, tag string, backoff retry.Backoff, args ...interface{}) error {
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		triggerError := r.TriggerContext(ctx, tag, args...)
		if errors.Is(triggerError, kernelError.ErrListenerFailed) {
			return retry.RetryableError(triggerError)
		}

		return triggerError
	})
}
