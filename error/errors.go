package error

import (
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

const (
	CodeIndexOutOfRange = "INDEX_OUT_OF_RANGE"
	CodeTagDone         = "TAG_DONE"
	CodeListenerFailed  = "LISTENER_FAILED"
	CodeConfigInvalid   = "CONFIG_INVALID"
)

var (
	ErrIndexOutOfRange     = errors.New("listener index out of range")
	ErrTagDone             = errors.New("event already triggered")
	ErrListenerFailed      = errors.New("event listener failed")
	ErrNilCallback         = errors.New("listener callback is nil")
	ErrUnsupportedListener = errors.New("unsupported listener signature")
)

func NewIndexOutOfRangeError(tag string, index, length int) error {
	return oops.
		Code(CodeIndexOutOfRange).
		With("tag", tag).
		With("index", index).
		With("length", length).
		Wrap(ErrIndexOutOfRange)
}

func NewTagDoneError(tag string) error {
	return oops.
		Code(CodeTagDone).
		With("tag", tag).
		Wrap(ErrTagDone)
}

// NewListenerFailedError wraps cause so that both ErrListenerFailed and cause match errors.Is.
func NewListenerFailedError(tag, listenerId string, position int, cause error) error {
	return oops.
		Code(CodeListenerFailed).
		With("tag", tag).
		With("listener_id", listenerId).
		With("position", position).
		Wrap(errors.Join(ErrListenerFailed, cause))
}

func NewConfigError(format string, args ...interface{}) error {
	return oops.Code(CodeConfigInvalid).Errorf(format, args...)
}

// LogError logs err with its oops code and context when it carries them.
func LogError(logger *slog.Logger, msg string, err error) {
	oopsErr, isOops := oops.AsOops(err)
	if !isOops {
		logger.Error(msg, "error", err)
		return
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); nil != code {
		attrs = append(attrs, "code", code)
	}
	if errorContext := oopsErr.Context(); len(errorContext) > 0 {
		attrs = append(attrs, "context", errorContext)
	}
	logger.Error(msg, attrs...)
}
