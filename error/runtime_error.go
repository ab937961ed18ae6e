package error

import (
	"errors"
	"fmt"
)

// RuntimeError carries a value recovered from a panicking listener together with the stack at the
// moment of recovery.
type RuntimeError struct {
	Error interface{}
	Trace []byte
}

func (e *RuntimeError) String() string {
	return fmt.Sprintf("listener panic: %v", e.Error)
}

func (e *RuntimeError) AsError() error {
	return &runtimeErrorValue{e}
}

//--------------------

func NewRuntimeError(errorObj interface{}, trace []byte) *RuntimeError {
	if nil == trace {
		trace = make([]byte, 0)
	}

	return &RuntimeError{
		Error: errorObj,
		Trace: trace,
	}
}

//--------------------

// runtimeErrorValue adapts RuntimeError to the error interface. RuntimeError keeps its exported
// Error field, so it can not implement error by itself.
type runtimeErrorValue struct {
	runtimeError *RuntimeError
}

func (v *runtimeErrorValue) Error() string {
	return v.runtimeError.String()
}

func (v *runtimeErrorValue) Unwrap() error {
	if wrapped, isError := v.runtimeError.Error.(error); isError {
		return wrapped
	}

	return nil
}

func (v *runtimeErrorValue) RuntimeError() *RuntimeError {
	return v.runtimeError
}

// AsRuntimeError extracts the recovered panic carried by err, if any.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var holder interface{ RuntimeError() *RuntimeError }
	if !errors.As(err, &holder) {
		return nil, false
	}

	return holder.RuntimeError(), true
}
