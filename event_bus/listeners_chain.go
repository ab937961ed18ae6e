package event_bus

import (
	"sort"

	"github.com/bassbeaver/gevents/event_bus/listener"
)

type listenersChain []*listener.Action

func (c listenersChain) Len() int {
	return len(c)
}

func (c listenersChain) Swap(i, j int) {
	c[i], c[j] = c[j], c[i]
}

func (c listenersChain) Less(i, j int) bool {
	return c[i].Priority() < c[j].Priority()
}

// sort orders the chain by ascending priority. Equal priorities keep registration order.
func (c listenersChain) sort() {
	sort.Stable(c)
}

func (c listenersChain) indexOf(action *listener.Action) int {
	for index, chainElement := range c {
		if chainElement == action {
			return index
		}
	}

	return -1
}

func (c listenersChain) without(index int) listenersChain {
	result := make(listenersChain, 0, len(c)-1)
	result = append(result, c[:index]...)

	return append(result, c[index+1:]...)
}

func (c listenersChain) infos() []listener.Info {
	result := make([]listener.Info, 0, len(c))
	for _, chainElement := range c {
		result = append(result, chainElement.Info())
	}

	return result
}
