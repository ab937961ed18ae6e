package listener

import (
	"reflect"

	kernelError "github.com/bassbeaver/gevents/error"
	"github.com/oklog/ulid/v2"
)

const DefaultPriority uint8 = 10

// Callback is one of Func, ArgFunc or VariadicFunc.
type Callback interface {
	Shape() Shape
	isCallback()
}

// Func takes no argument. Trigger arguments are not passed to it.
type Func func() error

// ArgFunc receives the first trigger argument, or nil when the trigger carried none.
type ArgFunc func(arg interface{}) error

// VariadicFunc receives every trigger argument.
type VariadicFunc func(args ...interface{}) error

func (Func) Shape() Shape         { return ShapeNoArg }
func (ArgFunc) Shape() Shape      { return ShapeArg }
func (VariadicFunc) Shape() Shape { return ShapeVariadic }

func (Func) isCallback()         {}
func (ArgFunc) isCallback()      {}
func (VariadicFunc) isCallback() {}

//--------------------

type Shape int

const (
	ShapeNoArg Shape = iota
	ShapeArg
	ShapeVariadic
)

func (s Shape) String() string {
	switch s {
	case ShapeNoArg:
		return "no_arg"
	case ShapeArg:
		return "arg"
	case ShapeVariadic:
		return "variadic"
	default:
		return "unknown"
	}
}

//--------------------

// Action is a registered callback and its priority. It is never modified after New returns.
type Action struct {
	id       string
	callback Callback
	priority uint8
}

func (a *Action) Id() string {
	return a.id
}

func (a *Action) Priority() uint8 {
	return a.priority
}

func (a *Action) Shape() Shape {
	return a.callback.Shape()
}

func (a *Action) Info() Info {
	return Info{
		Id:       a.id,
		Priority: a.priority,
		Shape:    a.callback.Shape().String(),
	}
}

// Invoke calls the callback with the arguments its shape accepts.
func (a *Action) Invoke(args []interface{}) error {
	switch callback := a.callback.(type) {
	case Func:
		return callback()
	case ArgFunc:
		var arg interface{}
		if len(args) > 0 {
			arg = args[0]
		}
		return callback(arg)
	case VariadicFunc:
		return callback(args...)
	}

	return nil
}

// Info is a read-only description of an Action.
type Info struct {
	Id       string `json:"id" yaml:"id"`
	Priority uint8  `json:"priority" yaml:"priority"`
	Shape    string `json:"shape" yaml:"shape"`
}

//--------------------

func New(callback Callback, priority uint8) (*Action, error) {
	if isNilCallback(callback) {
		return nil, kernelError.ErrNilCallback
	}

	return &Action{
		id:       ulid.Make().String(),
		callback: callback,
		priority: priority,
	}, nil
}

// FromFunc builds an Action from a function of unknown type, typically a method resolved by name
// from a service. Besides the three Callback types it accepts their unnamed equivalents and the
// same shapes without an error result.
func FromFunc(listenerFunc interface{}, priority uint8) (*Action, error) {
	callback, convertError := toCallback(listenerFunc)
	if nil != convertError {
		return nil, convertError
	}

	return New(callback, priority)
}

func toCallback(listenerFunc interface{}) (Callback, error) {
	if nil == listenerFunc {
		return nil, kernelError.ErrNilCallback
	}
	if funcValue := reflect.ValueOf(listenerFunc); reflect.Func == funcValue.Kind() && funcValue.IsNil() {
		return nil, kernelError.ErrNilCallback
	}

	switch typedFunc := listenerFunc.(type) {
	case Callback:
		return typedFunc, nil
	case func() error:
		return Func(typedFunc), nil
	case func(interface{}) error:
		return ArgFunc(typedFunc), nil
	case func(...interface{}) error:
		return VariadicFunc(typedFunc), nil
	case func():
		return Func(func() error {
			typedFunc()
			return nil
		}), nil
	case func(interface{}):
		return ArgFunc(func(arg interface{}) error {
			typedFunc(arg)
			return nil
		}), nil
	case func(...interface{}):
		return VariadicFunc(func(args ...interface{}) error {
			typedFunc(args...)
			return nil
		}), nil
	}

	return nil, kernelError.ErrUnsupportedListener
}

func isNilCallback(callback Callback) bool {
	if nil == callback {
		return true
	}

	return reflect.ValueOf(callback).IsNil()
}
