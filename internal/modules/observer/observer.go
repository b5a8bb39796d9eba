package observer

import "github.com/reusedev/batch-hub/internal/consts"

// Observer receives store change notifications. Update runs on the
// notifying goroutine and must not block.
type Observer interface {
	Update(event consts.Event, data interface{})
}

type Subject interface {
	Attach(o Observer)
	Notify(event consts.Event, data interface{})
}

// Func adapts a plain function to the Observer interface.
type Func func(event consts.Event, data interface{})

func (f Func) Update(event consts.Event, data interface{}) {
	f(event, data)
}
