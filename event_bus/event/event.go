package event

import (
	"github.com/bassbeaver/gioc"
)

// ContainerAccessor is implemented by the kernel that triggers lifecycle events.
type ContainerAccessor interface {
	GetContainer() *gioc.Container
}
