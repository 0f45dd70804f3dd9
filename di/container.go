package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/halo-dev/halo/logger"
)

// RegistrationMode determines how a component should be resolved
type RegistrationMode int

const (
	Eager     RegistrationMode = iota // Initialize immediately on registration
	Lazy                              // Initialize on first resolve
	Singleton                         // Pre-created instance
)

func (m RegistrationMode) String() string {
	switch m {
	case Eager:
		return "eager"
	case Lazy:
		return "lazy"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// Container defines the interface for a dependency injection container
type Container interface {
	RegisterLazy(key string, constructor interface{}) error
	RegisterEager(key string, constructor interface{}) error
	RegisterSingleton(key string, instance interface{}) error
	Resolve(key string) (interface{}, error)
	Has(key string) bool
	Close() error

	// Introspection
	Registrations() []RegistrationInfo
}

// RegistrationInfo describes a registered component for introspection.
type RegistrationInfo struct {
	Key         string
	Mode        RegistrationMode
	Initialized bool
}

// ErrClosed is returned by operations on a closed container.
var ErrClosed = errors.New("di: container closed")

// registration holds one registered key.
type registration struct {
	key         string
	constructor interface{}
	mode        RegistrationMode
	instance    interface{}
	initialized bool
	mutex       sync.Mutex
}

// MapContainer is the default Container implementation.
type MapContainer struct {
	entries map[string]*registration
	order   []string
	closed  bool
	mutex   sync.RWMutex
}

// NewContainer creates an empty container.
func NewContainer() *MapContainer {
	return &MapContainer{entries: make(map[string]*registration)}
}

var _ Container = (*MapContainer)(nil)

func (c *MapContainer) add(reg *registration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return ErrClosed
	}
	if _, exists := c.entries[reg.key]; exists {
		return fmt.Errorf("di: %s already registered", reg.key)
	}
	c.entries[reg.key] = reg
	c.order = append(c.order, reg.key)
	return nil
}

// RegisterLazy registers a constructor that runs on first Resolve.
func (c *MapContainer) RegisterLazy(key string, constructor interface{}) error {
	if reflect.ValueOf(constructor).Kind() != reflect.Func {
		return fmt.Errorf("di: constructor for %s must be a function", key)
	}
	return c.add(&registration{key: key, constructor: constructor, mode: Lazy})
}

// RegisterEager runs constructor immediately and registers its result.
func (c *MapContainer) RegisterEager(key string, constructor interface{}) error {
	instance, err := c.callConstructor(constructor)
	if err != nil {
		return fmt.Errorf("di: failed to initialize eager component '%s': %w", key, err)
	}
	return c.add(&registration{key: key, constructor: constructor, mode: Eager, instance: instance, initialized: true})
}

// RegisterSingleton registers a pre-created instance.
func (c *MapContainer) RegisterSingleton(key string, instance interface{}) error {
	return c.add(&registration{key: key, mode: Singleton, instance: instance, initialized: true})
}

// Has reports whether key is registered.
func (c *MapContainer) Has(key string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// Resolve gets a component instance
func (c *MapContainer) Resolve(key string) (interface{}, error) {
	c.mutex.RLock()
	reg, exists := c.entries[key]
	closed := c.closed
	c.mutex.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if !exists {
		return nil, fmt.Errorf("di: component not registered: %s", key)
	}

	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	if reg.initialized {
		return reg.instance, nil
	}

	instance, err := c.callConstructor(reg.constructor)
	if err != nil {
		logger.Debug("Lazy component initialization failed", map[string]interface{}{
			logger.FieldComponent: key,
			logger.FieldError:     err.Error(),
		})
		return nil, fmt.Errorf("di: failed to initialize lazy component '%s': %w", key, err)
	}
	reg.instance = instance
	reg.initialized = true

	logger.Debug("Lazy component initialized", map[string]interface{}{
		logger.FieldComponent: key,
	})
	return instance, nil
}

func (c *MapContainer) callConstructor(constructor interface{}) (interface{}, error) {
	fn := reflect.ValueOf(constructor)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function")
	}

	fnType := fn.Type()
	switch fnType.NumIn() {
	case 0:
		// func() Service or func() (Service, error)
		return handleConstructorResults(fn.Call(nil))
	case 1:
		in := fnType.In(0)
		if in.String() == "context.Context" {
			return handleConstructorResults(fn.Call([]reflect.Value{reflect.ValueOf(context.Background())}))
		}
		if reflect.TypeOf((*Container)(nil)).Elem().AssignableTo(in) || reflect.TypeOf(c).AssignableTo(in) {
			return handleConstructorResults(fn.Call([]reflect.Value{reflect.ValueOf(c)}))
		}
		return nil, fmt.Errorf("unsupported constructor argument %s", in)
	default:
		return nil, fmt.Errorf("constructor must take no arguments, a context.Context or a Container")
	}
}

func handleConstructorResults(results []reflect.Value) (interface{}, error) {
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		instance := results[0].Interface()
		if err, _ := results[1].Interface().(error); err != nil {
			return nil, err
		}
		return instance, nil
	default:
		return nil, fmt.Errorf("constructor must return either (instance) or (instance, error)")
	}
}

// Registrations returns info about all registered components in
// registration order.
func (c *MapContainer) Registrations() []RegistrationInfo {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]RegistrationInfo, 0, len(c.order))
	for _, key := range c.order {
		reg := c.entries[key]
		reg.mutex.Lock()
		result = append(result, RegistrationInfo{Key: key, Mode: reg.mode, Initialized: reg.initialized})
		reg.mutex.Unlock()
	}
	return result
}

// Close closes every initialized instance implementing io.Closer in reverse
// registration order. Further registrations and resolutions fail with
// ErrClosed. Calling Close again is a no-op.
func (c *MapContainer) Close() error {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return nil
	}
	c.closed = true
	order := c.order
	entries := c.entries
	c.mutex.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		reg := entries[order[i]]
		reg.mutex.Lock()
		instance, initialized := reg.instance, reg.initialized
		reg.mutex.Unlock()
		if !initialized || instance == nil {
			continue
		}
		if closer, ok := instance.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", reg.key, err))
			}
		}
	}
	return errors.Join(errs...)
}
