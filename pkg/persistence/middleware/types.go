package middleware

import "github.com/aretw0/btlib/pkg/ports"

// Middleware allows wrapping a TelemetryStore to add behavior.
type Middleware func(ports.TelemetryStore) ports.TelemetryStore

// Chain applies middlewares so the first one is the outermost.
func Chain(store ports.TelemetryStore, mws ...Middleware) ports.TelemetryStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
