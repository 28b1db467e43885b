// Package module is the process wide registry binaries use to find the
// ports another module exposes, e.g. the worker pulling WorkerPort out of
// the ocrjobs module.
package module

import (
	"fmt"
	"reflect"
	"sync"

	phttp "ocrjobs/internal/platform/net/http"
)

// Module is what a binary composes: routes under a prefix plus a port set
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

var registry sync.Map // module name -> ports

// Register publishes ports under name, replacing earlier ports
func Register(name string, ports any) { registry.Store(name, ports) }

// PortsAs looks name up and asserts its ports to T
func PortsAs[T any](name string) (T, bool) {
	v, _ := registry.Load(name)
	t, ok := v.(T)
	return t, ok
}

// Reset empties the registry
func Reset() { registry.Clear() }

// PortsOf finds a T on m directly: either Ports() is a T or one of its
// exported struct fields is.
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if t, ok := p.(T); ok {
		return t, true
	}
	rv := reflect.ValueOf(p)
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return zero, false
	}
	for i := range rv.NumField() {
		f := rv.Field(i)
		if !f.CanInterface() {
			continue
		}
		if t, ok := f.Interface().(T); ok {
			return t, true
		}
	}
	return zero, false
}

// MustPortsOf is PortsOf for wiring in main, where a missing port is a bug
func MustPortsOf[T any](m Module) T {
	t, ok := PortsOf[T](m)
	if !ok {
		panic(fmt.Sprintf("module %s: no %s in ports", m.Name(), reflect.TypeFor[T]()))
	}
	return t
}
