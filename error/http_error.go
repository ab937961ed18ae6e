package error

import "net/http"

type HttpError interface {
	Status() int
	Message() string
}

//--------------------

type basicHttpError struct {
	status  int
	message string
}

func (e *basicHttpError) Status() int {
	return e.status
}

func (e *basicHttpError) Message() string {
	return e.message
}

//--------------------

type NotFoundHttpError struct {
	basicHttpError
}

func NewNotFoundHttpError() *NotFoundHttpError {
	return &NotFoundHttpError{
		basicHttpError{
			status:  http.StatusNotFound,
			message: http.StatusText(http.StatusNotFound),
		},
	}
}

//--------------------

type InternalServerHttpError struct {
	basicHttpError
}

func NewInternalServerHttpError(message string) *InternalServerHttpError {
	if "" == message {
		message = http.StatusText(http.StatusInternalServerError)
	}

	return &InternalServerHttpError{
		basicHttpError{
			status:  http.StatusInternalServerError,
			message: message,
		},
	}
}

//--------------------

type ServiceUnavailableHttpError struct {
	basicHttpError
}

func NewServiceUnavailableHttpError(message string) *ServiceUnavailableHttpError {
	if "" == message {
		message = http.StatusText(http.StatusServiceUnavailable)
	}

	return &ServiceUnavailableHttpError{
		basicHttpError{
			status:  http.StatusServiceUnavailable,
			message: message,
		},
	}
}
