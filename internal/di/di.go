// Package di is a small lazy service container used to wire modules together.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services by name.
type ServiceRegistry interface {
	Get(name string) any
}

// Container registers services and factories.
type Container interface {
	ServiceRegistry
	Register(name string, service any)
	RegisterFactory(name string, factory func(ServiceRegistry) any)
	Has(name string) bool
}

type container struct {
	mu        sync.Mutex
	services  map[string]any
	factories map[string]func(ServiceRegistry) any
	resolving map[string]bool
}

// NewContainer returns an empty Container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
		resolving: make(map[string]bool),
	}
}

func (c *container) Register(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.services, name)
	c.factories[name] = factory
}

func (c *container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.services[name]
	if !ok {
		_, ok = c.factories[name]
	}
	return ok
}

// Get returns the named service, building it on first use. It panics when the
// name is unknown or a dependency cycle is detected; both are wiring bugs.
func (c *container) Get(name string) any {
	c.mu.Lock()
	if svc, ok := c.services[name]; ok {
		c.mu.Unlock()
		return svc
	}
	factory, ok := c.factories[name]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: service %q is not registered", name))
	}
	if c.resolving[name] {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: dependency cycle resolving %q", name))
	}
	c.resolving[name] = true
	c.mu.Unlock()

	// factories resolve their own dependencies, so the lock is not held here
	svc := factory(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.resolving, name)
	if existing, ok := c.services[name]; ok {
		return existing
	}
	c.services[name] = svc
	return svc
}

// Token is a typed key for a service.
type Token[T any] struct {
	name string
}

// NewToken creates a typed token.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry key.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed lazy factory.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a typed service.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	svc, ok := sr.Get(tok.name).(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type", tok.name))
	}
	return svc
}
