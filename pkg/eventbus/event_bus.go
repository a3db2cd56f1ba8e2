package eventbus

import (
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventBus dispatches domain events to in-process subscribers. Events are
// plain structs published by pointer; a handler is a func taking exactly one
// event pointer, and only handlers whose parameter type matches the published
// event are invoked.
type EventBus interface {
	Publish(event interface{})
	Subscribe(handler interface{})
	Unsubscribe(handler interface{})
	Clear()
	SubscribersCount() int
}

type publisher struct {
	log *logrus.Logger

	mu       sync.RWMutex
	handlers map[reflect.Type][]reflect.Value
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &publisher{
		log:      log,
		handlers: map[reflect.Type][]reflect.Value{},
	}
}

// eventType returns the single parameter type of a handler function, or nil
// when the value is not a usable handler.
func eventType(handler interface{}) reflect.Type {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 {
		return nil
	}
	return t.In(0)
}

func (p *publisher) Publish(event interface{}) {
	p.mu.RLock()
	handlers := p.handlers[reflect.TypeOf(event)]
	p.mu.RUnlock()

	if len(handlers) == 0 {
		if p.log != nil {
			p.log.Warnf("eventbus.Publish: no matching subscribers for %T", event)
		}
		return
	}

	in := []reflect.Value{reflect.ValueOf(event)}
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil && p.log != nil {
					p.log.Errorf("eventbus: handler for %T panicked: %v", event, r)
				}
			}()
			h.Call(in)
		}()
	}
}

func (p *publisher) Subscribe(handler interface{}) {
	t := eventType(handler)
	if t == nil {
		panic("eventbus: handler must be a func with exactly one event argument")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[t] = append(p.handlers[t], reflect.ValueOf(handler))
}

func (p *publisher) Unsubscribe(handler interface{}) {
	t := eventType(handler)
	if t == nil {
		return
	}
	ptr := reflect.ValueOf(handler).Pointer()

	p.mu.Lock()
	defer p.mu.Unlock()
	hs := p.handlers[t]
	for i, h := range hs {
		if h.Pointer() == ptr {
			p.handlers[t] = append(hs[:i], hs[i+1:]...)
			return
		}
	}
}

func (p *publisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = map[reflect.Type][]reflect.Value{}
}

func (p *publisher) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, hs := range p.handlers {
		n += len(hs)
	}
	return n
}
