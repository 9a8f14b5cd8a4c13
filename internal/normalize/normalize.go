// Package normalize canonicalizes raw event payloads.
//
// Two payload encodings exist in the wild: the current form ("user",
// "logentry", ...) and a legacy form produced by old SDK protocols
// ("sentry.interfaces.User", ...). Consumers must treat both as equivalent
// input; this package maps legacy keys onto their canonical names and hosts
// the sampling gate that decides which payloads get re-normalized on load.
package normalize

import (
	"crypto/md5"
	"math/big"
)

// Normalizer re-canonicalizes a raw event payload. Implementations must be
// safe for concurrent use.
type Normalizer interface {
	// Normalize returns the canonical form of raw. When renormalize is true
	// the payload has already been through ingestion normalization once and
	// only key canonicalization and defaults are reapplied.
	Normalize(raw map[string]interface{}, renormalize bool) map[string]interface{}
}

// canonicalKeys maps legacy payload keys to their canonical interface names.
var canonicalKeys = map[string]string{
	"sentry.interfaces.Exception":   "exception",
	"sentry.interfaces.Message":     "logentry",
	"sentry.interfaces.Stacktrace":  "stacktrace",
	"sentry.interfaces.Template":    "template",
	"sentry.interfaces.Http":        "request",
	"sentry.interfaces.User":        "user",
	"sentry.interfaces.Csp":         "csp",
	"sentry.interfaces.Breadcrumbs": "breadcrumbs",
	"sentry.interfaces.Contexts":    "contexts",
	"sentry.interfaces.Threads":     "threads",
	"sentry.interfaces.DebugMeta":   "debug_meta",
}

// CanonicalKey returns the canonical name for a payload key. Keys that are
// already canonical are returned unchanged.
func CanonicalKey(key string) string {
	if mapped, ok := canonicalKeys[key]; ok {
		return mapped
	}
	return key
}

// CanonicalizeKeys returns a copy of raw with legacy keys renamed to their
// canonical form. A canonical key already present in raw wins over its
// legacy alias.
func CanonicalizeKeys(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		ck := CanonicalKey(k)
		if ck != k {
			if _, exists := raw[ck]; exists {
				continue
			}
		}
		out[ck] = v
	}
	return out
}

const sampleSpace = 100000000 // 10^8, matches the upstream decision function

// SampleDecision reports whether the payload for eventID should be routed
// through the normalizer again. The decision hashes the event id so it is
// stable across repeated evaluations of the same event; rate is the sampled
// fraction in [0, 1].
func SampleDecision(eventID string, rate float64) bool {
	if eventID == "" || rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}

	sum := md5.Sum([]byte(eventID))
	n := new(big.Int).SetBytes(sum[:])
	bucket := new(big.Int).Mod(n, big.NewInt(sampleSpace)).Int64()
	return bucket <= int64(rate*sampleSpace)
}

// StoreNormalizer is the shipped Normalizer. It rewrites legacy keys and
// backfills the defaults the rest of the event core assumes are present.
type StoreNormalizer struct{}

func (StoreNormalizer) Normalize(raw map[string]interface{}, renormalize bool) map[string]interface{} {
	out := CanonicalizeKeys(raw)

	if _, ok := out["type"]; !ok {
		out["type"] = "default"
	}
	if _, ok := out["version"]; !ok {
		out["version"] = "5"
	}
	return out
}
