package event

import (
	"context"

	"github.com/faultline-hq/faultline/internal/normalize"
)

// knownInterfaces is the closed set of structured payload sub-objects
// exposed through GetInterface. Payloads may address them by either the
// canonical or the legacy key; both are treated as equivalent input.
var knownInterfaces = map[string]bool{
	"logentry":    true,
	"request":     true,
	"user":        true,
	"exception":   true,
	"stacktrace":  true,
	"template":    true,
	"csp":         true,
	"breadcrumbs": true,
	"contexts":    true,
	"threads":     true,
	"debug_meta":  true,
	"sdk":         true,
}

// Interfaces parses the raw payload into its named structured sub-objects,
// memoized per instance. Keys are always canonical regardless of which
// encoding the payload used.
func (e *Event) Interfaces(ctx context.Context) (map[string]map[string]interface{}, error) {
	if e.cache.interfaces != nil {
		return e.cache.interfaces, nil
	}

	data, err := e.Data(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]interface{})
	for k, v := range data {
		name := normalize.CanonicalKey(k)
		if !knownInterfaces[name] {
			continue
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		out[name] = m
	}

	e.cache.interfaces = out
	return out, nil
}

// GetInterface returns one named sub-object, or nil when the payload does
// not carry it. Backings may synthesize selected interfaces from their own
// columns without touching the payload.
func (e *Event) GetInterface(ctx context.Context, name string) (map[string]interface{}, error) {
	name = normalize.CanonicalKey(name)

	if p, ok := e.backing.(interfaceProvider); ok {
		if v, ok := p.ProvideInterface(name); ok {
			return v, nil
		}
	}

	ifaces, err := e.Interfaces(ctx)
	if err != nil {
		return nil, err
	}
	return ifaces[name], nil
}
