package event

import (
	"context"
	"errors"
)

// ErrNoHashes is returned by PrimaryHash for events with no grouping
// hashes. Historically this surfaced as an index error and callers depend
// on the failure; an explicit "ungrouped" state remains an open question.
var ErrNoHashes = errors.New("event has no grouping hashes")

// Hashes returns the event's grouping hashes. Hashes stored in the payload
// are returned exactly as stored; otherwise they are derived from the
// grouping variants, dropping empty hashes while preserving resolver order.
func (e *Event) Hashes(ctx context.Context) ([]string, error) {
	if e.cache.hashesSet {
		return e.cache.hashes, nil
	}

	data, err := e.Data(ctx)
	if err != nil {
		return nil, err
	}

	if raw, ok := data["hashes"]; ok && raw != nil {
		hashes := toStringSlice(raw)
		e.cache.hashes = hashes
		e.cache.hashesSet = true
		return hashes, nil
	}

	variants, err := e.GroupingVariants(ctx, "")
	if err != nil {
		return nil, err
	}

	hashes := make([]string, 0, len(variants))
	for _, v := range variants {
		if v.Hash != "" {
			hashes = append(hashes, v.Hash)
		}
	}
	e.cache.hashes = hashes
	e.cache.hashesSet = true
	return hashes, nil
}

// GroupingVariants returns the candidate fingerprints for this event in
// resolver-assigned order. config overrides the grouping configuration;
// empty selects the resolver default.
func (e *Event) GroupingVariants(ctx context.Context, config string) ([]Variant, error) {
	if e.deps.Grouper == nil {
		return nil, nil
	}
	data, err := e.Data(ctx)
	if err != nil {
		return nil, err
	}
	return e.deps.Grouper.Variants(data, config), nil
}

// PrimaryHash returns the first grouping hash, or ErrNoHashes when the
// event has none.
func (e *Event) PrimaryHash(ctx context.Context) (string, error) {
	hashes, err := e.Hashes(ctx)
	if err != nil {
		return "", err
	}
	if len(hashes) == 0 {
		return "", ErrNoHashes
	}
	return hashes[0], nil
}

func toStringSlice(raw interface{}) []string {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
