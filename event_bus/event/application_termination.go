package event

import "errors"

// ApplicationTermination is passed to listeners of kernelEvent.ApplicationTermination. Listeners
// may append to Errors.
type ApplicationTermination struct {
	ContainerAccessor
	Errors *[]error
}

func (e *ApplicationTermination) Err() error {
	if nil == e.Errors {
		return nil
	}

	return errors.Join(*e.Errors...)
}

//--------------------

func NewApplicationTermination(containerAccessorObj ContainerAccessor, terminationErrors *[]error) *ApplicationTermination {
	return &ApplicationTermination{
		ContainerAccessor: containerAccessorObj,
		Errors:            terminationErrors,
	}
}
