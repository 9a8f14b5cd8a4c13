// Package options holds process-wide operator-tunable values.
//
// Unlike internal/config, which is parsed once at startup, options are read
// at call time so operators can retune them on a running process (for
// example while ramping the payload renormalization sample rate).
package options

import "sync"

// RenormalizeSampleRate controls what fraction of payloads are routed back
// through the canonicalizing normalizer on load. See normalize.SampleDecision.
const RenormalizeSampleRate = "store.renormalize_sample_rate"

var reg = struct {
	mu     sync.RWMutex
	values map[string]interface{}
}{values: make(map[string]interface{})}

// Set stores value under name, replacing any previous value.
func Set(name string, value interface{}) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.values[name] = value
}

// Float64 returns the named option as a float64, or def when the option is
// unset or holds a non-numeric value.
func Float64(name string, def float64) float64 {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	switch v := reg.values[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// String returns the named option as a string, or def when unset.
func String(name string, def string) string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if v, ok := reg.values[name].(string); ok {
		return v
	}
	return def
}
