package event

// ApplicationLaunched is passed to listeners of kernelEvent.ApplicationLaunched.
type ApplicationLaunched struct {
	ContainerAccessor
	Tags []string
}

//--------------------

func NewApplicationLaunched(containerAccessorObj ContainerAccessor, tags []string) *ApplicationLaunched {
	return &ApplicationLaunched{
		ContainerAccessor: containerAccessorObj,
		Tags:              tags,
	}
}
