package winc

import (
	"sync"

	"winclink-go/errcode"
)

// OpenInput is passed to a driver factory.
type OpenInput struct {
	Link   *Link // nil when the driver brings its own transport
	Timing Timing
}

// Factory constructs a driver. It must not touch the chip; that happens in
// Driver.Initialize.
type Factory func(in OpenInput) (Driver, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a driver available under name. Registering the same
// name twice panics.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[name]; exists {
		panic("winc: driver already registered: " + name)
	}
	factories[name] = f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Names lists registered drivers in no particular order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	return out
}

// Open constructs the driver registered under name.
func Open(name string, in OpenInput) (Driver, error) {
	f, ok := Lookup(name)
	if !ok {
		return nil, errcode.New(errcode.UnknownDriver, "winc.Open", name)
	}
	in.Timing = in.Timing.Normalize()
	return f(in)
}
