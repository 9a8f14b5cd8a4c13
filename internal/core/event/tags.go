package event

import (
	"context"
	"fmt"
	"sort"
)

// Tag is one key/value pair attached to an event.
type Tag struct {
	Key   string
	Value string
}

// Tags is a deterministically sorted set of tag pairs.
type Tags []Tag

func (t Tags) sort() {
	sort.Slice(t, func(i, j int) bool {
		if t[i].Key != t[j].Key {
			return t[i].Key < t[j].Key
		}
		return t[i].Value < t[j].Value
	})
}

// Tags returns the event's tags sorted ascending by key then value, with
// nil keys and values excluded. Backings that carry tags natively answer
// without the payload; otherwise the raw encoding is parsed.
func (e *Event) Tags(ctx context.Context) (Tags, error) {
	if p, ok := e.backing.(tagsProvider); ok {
		if tags, ok := p.ProvideTags(); ok {
			return tags, nil
		}
	}

	data, err := e.Data(ctx)
	if err != nil {
		return nil, err
	}
	return parseTags(data["tags"]), nil
}

// parseTags converts the raw payload tag encoding into sorted Tags. At one
// point ingestion accepted invalid tag sets (flat scalars where pairs were
// expected); those parse soft to an empty result instead of erroring.
func parseTags(raw interface{}) Tags {
	switch v := raw.(type) {
	case nil:
		return Tags{}

	case map[string]interface{}:
		tags := make(Tags, 0, len(v))
		for key, value := range v {
			if value == nil {
				continue
			}
			tags = append(tags, Tag{Key: key, Value: stringify(value)})
		}
		tags.sort()
		return tags

	case []interface{}:
		tags := make(Tags, 0, len(v))
		for _, entry := range v {
			if entry == nil {
				continue
			}
			pair, ok := entry.([]interface{})
			if !ok || len(pair) != 2 {
				// malformed legacy encoding: fail soft
				return Tags{}
			}
			if pair[0] == nil || pair[1] == nil {
				continue
			}
			tags = append(tags, Tag{Key: stringify(pair[0]), Value: stringify(pair[1])})
		}
		tags.sort()
		return tags

	default:
		return Tags{}
	}
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetTag returns the value of the named tag, or empty when absent.
func (e *Event) GetTag(ctx context.Context, key string) (string, error) {
	tags, err := e.Tags(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range tags {
		if t.Key == key {
			return t.Value, nil
		}
	}
	return "", nil
}

// Release returns the release tag stamped at ingestion.
func (e *Event) Release(ctx context.Context) (string, error) {
	return e.GetTag(ctx, "sentry:release")
}

// Dist returns the distribution tag stamped at ingestion.
func (e *Event) Dist(ctx context.Context) (string, error) {
	return e.GetTag(ctx, "sentry:dist")
}

// TransactionName returns the transaction tag, when present.
func (e *Event) TransactionName(ctx context.Context) (string, error) {
	return e.GetTag(ctx, "transaction")
}

// EnvironmentName returns the environment tag, when present.
func (e *Event) EnvironmentName(ctx context.Context) (string, error) {
	return e.GetTag(ctx, "environment")
}
