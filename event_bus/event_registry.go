package event_bus

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"

	kernelError "github.com/bassbeaver/gevents/error"
	"github.com/bassbeaver/gevents/event_bus/listener"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/bassbeaver/gevents/event_bus"

// EventRegistry is safe for concurrent use. Its lock is never held while a listener runs, so
// listeners may call back into the registry.
//
// A tag is triggered by one caller at a time. A Trigger of a tag whose listeners are running on
// another goroutine returns nil at once, before that pass completes, and does not report whether
// the pass succeeded. Use IsDone to learn the outcome.
type EventRegistry struct {
	listeners  map[string]listenersChain
	done       map[string]struct{}
	firing     map[string]struct{} // tags whose listeners are being invoked right now
	mutex      sync.Mutex
	donePolicy DonePolicy
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

// Register adds callback under tag with listener.DefaultPriority.
func (r *EventRegistry) Register(tag string, callback listener.Callback) (int, error) {
	return r.RegisterWithPriority(tag, callback, listener.DefaultPriority)
}

// RegisterWithPriority adds callback under tag and returns its index in the tag's chain, as
// accepted by Unregister. The index is only valid until the chain changes again.
func (r *EventRegistry) RegisterWithPriority(tag string, callback listener.Callback, priority uint8) (int, error) {
	action, actionError := listener.New(callback, priority)
	if nil != actionError {
		return -1, actionError
	}

	return r.RegisterAction(tag, action)
}

func (r *EventRegistry) RegisterAction(tag string, action *listener.Action) (int, error) {
	if nil == action {
		return -1, kernelError.ErrNilCallback
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, isDone := r.done[tag]; isDone {
		r.metrics.registration(false)
		r.logger.Debug("listener rejected, event already triggered", "tag", tag, "listener_id", action.Id())

		return -1, kernelError.NewTagDoneError(tag)
	}

	chain := append(r.listeners[tag], action)
	chain.sort()
	r.listeners[tag] = chain

	index := chain.indexOf(action)
	r.metrics.registration(true)
	r.logger.Debug(
		"listener registered",
		"tag", tag,
		"listener_id", action.Id(),
		"priority", action.Priority(),
		"shape", action.Shape().String(),
		"index", index,
	)

	return index, nil
}

// Unregister removes the listener at index from the tag's chain. A tag without a chain is left
// alone; an index outside the chain is reported and nothing is removed.
func (r *EventRegistry) Unregister(tag string, index int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	chain, chainExists := r.listeners[tag]
	if !chainExists {
		return nil
	}

	if index < 0 || index >= len(chain) {
		return kernelError.NewIndexOutOfRangeError(tag, index, len(chain))
	}

	removed := chain[index]
	r.listeners[tag] = chain.without(index)
	r.logger.Debug("listener unregistered", "tag", tag, "listener_id", removed.Id(), "index", index)

	return nil
}

// UnregisterAction removes action from the tag's chain and reports whether it was there.
func (r *EventRegistry) UnregisterAction(tag string, action *listener.Action) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	chain, chainExists := r.listeners[tag]
	if !chainExists {
		return false
	}

	index := chain.indexOf(action)
	if index < 0 {
		return false
	}

	if 1 == len(chain) {
		delete(r.listeners, tag)
	} else {
		r.listeners[tag] = chain.without(index)
	}
	r.logger.Debug("listener unregistered", "tag", tag, "listener_id", action.Id(), "index", index)

	return true
}

// UnregisterAll removes the tag's whole chain.
func (r *EventRegistry) UnregisterAll(tag string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, chainExists := r.listeners[tag]; !chainExists {
		return
	}

	delete(r.listeners, tag)
	r.logger.Debug("listeners unregistered", "tag", tag)
}

// Clear drops every chain. Tags already done stay done.
func (r *EventRegistry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.listeners = make(map[string]listenersChain)
	r.logger.Debug("listeners cleared")
}

func (r *EventRegistry) IsDone(tag string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, isDone := r.done[tag]

	return isDone
}

// Trigger passes arg to every listener of tag that accepts an argument.
func (r *EventRegistry) Trigger(tag string, arg interface{}) error {
	return r.TriggerContext(context.Background(), tag, arg)
}

func (r *EventRegistry) TriggerArgs(tag string, args ...interface{}) error {
	return r.TriggerContext(context.Background(), tag, args...)
}

// TriggerContext invokes the listeners of tag once. ctx only carries trace and logging context;
// listeners are not interrupted when it is cancelled.
//
// A trigger of a done tag does nothing. A trigger of a tag whose listeners are being invoked, by
// one of those listeners or by another goroutine, also does nothing and returns nil without
// waiting: the tag is neither pending nor done at that moment.
func (r *EventRegistry) TriggerContext(ctx context.Context, tag string, args ...interface{}) error {
	ctx, span := r.tracer.Start(ctx, "event_bus.trigger", trace.WithAttributes(attribute.String("event.tag", tag)))
	defer span.End()

	chain, shouldFire := r.beginTrigger(ctx, tag)
	if !shouldFire {
		return nil
	}
	span.SetAttributes(attribute.Int("event.listeners", len(chain)))

	for position, action := range chain {
		invokeError := invokeAction(action, args)
		r.metrics.invocation(invokeError)
		if nil == invokeError {
			continue
		}

		failure := kernelError.NewListenerFailedError(tag, action.Id(), position, invokeError)
		r.rollbackTrigger(tag, chain)

		span.RecordError(failure)
		span.SetStatus(codes.Error, "listener failed")
		r.logger.WarnContext(
			ctx,
			"event listener failed, trigger rolled back",
			"tag", tag,
			"listener_id", action.Id(),
			"position", position,
			"error", invokeError,
		)

		return failure
	}

	r.commitTrigger(ctx, tag, len(chain))

	return nil
}

func (r *EventRegistry) beginTrigger(ctx context.Context, tag string) (listenersChain, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, isDone := r.done[tag]; isDone {
		r.metrics.trigger(triggerResultSkippedDone)
		return nil, false
	}

	if _, isFiring := r.firing[tag]; isFiring {
		r.metrics.trigger(triggerResultSkippedFiring)
		r.logger.DebugContext(ctx, "re-entrant trigger ignored", "tag", tag)
		return nil, false
	}

	chain := r.listeners[tag]
	if 0 == len(chain) {
		r.metrics.trigger(triggerResultEmpty)
		if DoneAlways == r.donePolicy {
			delete(r.listeners, tag)
			r.markDone(tag)
			r.logger.DebugContext(ctx, "event triggered without listeners", "tag", tag)
		}
		return nil, false
	}

	delete(r.listeners, tag)
	r.firing[tag] = struct{}{}
	chain.sort()

	return chain, true
}

func (r *EventRegistry) commitTrigger(ctx context.Context, tag string, invoked int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.firing, tag)
	if late := len(r.listeners[tag]); late > 0 {
		r.logger.DebugContext(ctx, "listeners registered during trigger dropped", "tag", tag, "count", late)
	}
	delete(r.listeners, tag)
	r.markDone(tag)

	r.metrics.trigger(triggerResultFired)
	r.logger.DebugContext(ctx, "event triggered", "tag", tag, "listeners", invoked)
}

// rollbackTrigger puts the detached chain back, together with listeners registered while it was
// being invoked.
func (r *EventRegistry) rollbackTrigger(tag string, chain listenersChain) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.firing, tag)

	restored := make(listenersChain, 0, len(chain)+len(r.listeners[tag]))
	restored = append(restored, chain...)
	restored = append(restored, r.listeners[tag]...)
	restored.sort()
	r.listeners[tag] = restored

	r.metrics.trigger(triggerResultFailed)
}

func (r *EventRegistry) markDone(tag string) {
	r.done[tag] = struct{}{}
	r.metrics.doneTags(len(r.done))
}

// Len returns the number of listeners registered under tag.
func (r *EventRegistry) Len(tag string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.listeners[tag])
}

// Tags returns the tags that currently have a chain, sorted.
func (r *EventRegistry) Tags() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return sortedKeys(r.listeners)
}

func (r *EventRegistry) DoneTags() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return sortedKeys(r.done)
}

// Listeners describes the tag's listeners in dispatch order.
func (r *EventRegistry) Listeners(tag string) []listener.Info {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.listeners[tag].infos()
}

//--------------------

func NewEventRegistry(options ...Option) *EventRegistry {
	r := &EventRegistry{
		listeners:  make(map[string]listenersChain),
		done:       make(map[string]struct{}),
		firing:     make(map[string]struct{}),
		donePolicy: DoneAlways,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

//--------------------

func invokeAction(action *listener.Action, args []interface{}) (invokeError error) {
	defer func() {
		// Recover should be called directly by a deferred function. https://golang.org/ref/spec#Handling_panics
		recoveredError := recover()
		if nil != recoveredError {
			invokeError = kernelError.NewRuntimeError(recoveredError, debug.Stack()).AsError()
		}
	}()

	return action.Invoke(args)
}

func sortedKeys[V any](source map[string]V) []string {
	keys := make([]string, 0, len(source))
	for key := range source {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
