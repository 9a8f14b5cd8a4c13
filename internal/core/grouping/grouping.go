// Package grouping computes candidate fingerprints ("variants") used to
// cluster events into groups. Each variant applies one strategy (explicit
// checksum, custom fingerprint, or content-derived components) and yields
// a hash; empty hashes mean the strategy does not contribute for that
// payload. Variant order is fixed and meaningful to callers.
package grouping

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/faultline-hq/faultline/internal/core/event"
)

// DefaultConfig is the grouping configuration applied when the caller does
// not force one.
const DefaultConfig = "builtin:2019-04"

// defaultFingerprint is the marker SDKs send for "group by server-side
// defaults".
const defaultFingerprint = "{{ default }}"

// Resolver derives grouping variants from raw event payloads. It is
// stateless and safe for concurrent use.
type Resolver struct{}

// NewResolver returns the built-in resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Variants returns the candidate fingerprints for payload in fixed order:
// checksum, custom fingerprint, then the content-derived default component.
// Variants whose strategy has nothing to contribute carry an empty hash.
func (r *Resolver) Variants(payload map[string]interface{}, config string) []event.Variant {
	if config == "" {
		config = DefaultConfig
	}

	return []event.Variant{
		{Name: "checksum", Hash: checksumHash(payload)},
		{Name: "custom-fingerprint", Hash: fingerprintHash(payload)},
		{Name: "default", Hash: defaultHash(payload)},
	}
}

// checksumHash honors an explicit client-supplied checksum verbatim.
func checksumHash(payload map[string]interface{}) string {
	if sum, ok := payload["checksum"].(string); ok {
		return sum
	}
	return ""
}

// fingerprintHash hashes a custom fingerprint. A fingerprint consisting
// only of the default marker defers entirely to the default variant.
func fingerprintHash(payload map[string]interface{}) string {
	parts := fingerprintParts(payload["fingerprint"])
	if len(parts) == 0 {
		return ""
	}

	custom := false
	for _, part := range parts {
		if part != defaultFingerprint {
			custom = true
			break
		}
	}
	if !custom {
		return ""
	}
	return hashParts(parts)
}

// defaultHash derives a hash from the event content: stack trace frames
// when an exception is present, the log message otherwise.
func defaultHash(payload map[string]interface{}) string {
	if parts := stacktraceParts(payload); len(parts) > 0 {
		return hashParts(parts)
	}
	if msg := messagePart(payload); msg != "" {
		return hashParts([]string{msg})
	}
	return ""
}

func fingerprintParts(raw interface{}) []string {
	values, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		switch s := v.(type) {
		case string:
			parts = append(parts, s)
		case float64, int, int64, bool:
			parts = append(parts, fmt.Sprintf("%v", s))
		}
	}
	return parts
}

// stacktraceParts flattens every exception stack frame into hashable
// components, preferring module+function and degrading to filename and line
// number for frames without symbolication.
func stacktraceParts(payload map[string]interface{}) []string {
	exception, ok := payload["exception"].(map[string]interface{})
	if !ok {
		return nil
	}
	values, ok := exception["values"].([]interface{})
	if !ok {
		return nil
	}

	var parts []string
	for _, v := range values {
		value, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if typ, ok := value["type"].(string); ok && typ != "" {
			parts = append(parts, typ)
		}

		stacktrace, ok := value["stacktrace"].(map[string]interface{})
		if !ok {
			continue
		}
		frames, ok := stacktrace["frames"].([]interface{})
		if !ok {
			continue
		}
		for _, f := range frames {
			frame, ok := f.(map[string]interface{})
			if !ok {
				continue
			}
			parts = append(parts, frameParts(frame)...)
		}
	}
	return parts
}

func frameParts(frame map[string]interface{}) []string {
	module, _ := frame["module"].(string)
	filename, _ := frame["filename"].(string)
	function, _ := frame["function"].(string)

	switch {
	case module != "" && function != "":
		return []string{module, function}
	case filename != "" && function != "":
		return []string{filename, function}
	case filename != "":
		if lineno, ok := frame["lineno"].(float64); ok {
			return []string{filename, fmt.Sprintf("%d", int(lineno))}
		}
		return []string{filename}
	case function != "":
		return []string{function}
	}
	return nil
}

func messagePart(payload map[string]interface{}) string {
	if logentry, ok := payload["logentry"].(map[string]interface{}); ok {
		if s, ok := logentry["formatted"].(string); ok && s != "" {
			return s
		}
		if s, ok := logentry["message"].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := payload["message"].(string); ok && s != "" {
		return s
	}
	return ""
}

// hashParts folds the components into a single hex digest. Parts are
// NUL-separated so ("ab","c") and ("a","bc") never collide.
func hashParts(parts []string) string {
	h := md5.New()
	h.Write([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}
