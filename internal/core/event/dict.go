package event

import (
	"context"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// AsDict renders the event in normalized form for external consumers. The
// representation is ordered: first-class fields come first in a fixed
// sequence, then every remaining payload key in sorted order. The sdk
// sub-object always has its client_ip stripped, and the derived title and
// location replace whatever the payload stored.
func (e *Event) AsDict(ctx context.Context) (*orderedmap.OrderedMap[string, interface{}], error) {
	data, err := e.Data(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := e.Tags(ctx)
	if err != nil {
		return nil, err
	}
	release, err := e.Release(ctx)
	if err != nil {
		return nil, err
	}
	dist, err := e.Dist(ctx)
	if err != nil {
		return nil, err
	}
	message, err := e.RealMessage(ctx)
	if err != nil {
		return nil, err
	}

	out := orderedmap.New[string, interface{}]()
	out.Set("event_id", e.EventID)
	out.Set("project", e.ProjectID)
	out.Set("release", nullableString(release))
	out.Set("dist", nullableString(dist))
	out.Set("platform", e.Platform)
	out.Set("message", message)
	out.Set("datetime", e.Datetime)
	out.Set("time_spent", e.TimeSpent)
	out.Set("tags", externalTags(tags))

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, exists := out.Get(k); exists {
			continue
		}
		v := data[k]
		if k == "sdk" {
			v = stripSDKClientIP(v)
		}
		out.Set(k, v)
	}

	// Culprit was not persisted for a long time; backfill from the group.
	if v, ok := out.Get("culprit"); !ok || v == nil {
		group, err := e.Group(ctx)
		if err != nil {
			return nil, err
		}
		out.Set("culprit", group.Culprit)
	}

	title, err := e.Title(ctx)
	if err != nil {
		return nil, err
	}
	location, err := e.Location(ctx)
	if err != nil {
		return nil, err
	}
	out.Set("title", title)
	out.Set("location", nullableString(location))

	return out, nil
}

// externalTags renders tags as [key, value] pairs with the internal
// "sentry:" prefix stripped from keys.
func externalTags(tags Tags) [][2]string {
	out := make([][2]string, 0, len(tags))
	for _, t := range tags {
		key := t.Key
		if idx := strings.Index(key, "sentry:"); idx >= 0 {
			key = key[idx+len("sentry:"):]
		}
		out = append(out, [2]string{key, t.Value})
	}
	return out
}

// stripSDKClientIP drops the client_ip sub-field from the sdk payload
// object. The address is sensitive and must never appear in serialized
// output.
func stripSDKClientIP(v interface{}) interface{} {
	sdk, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	out := make(map[string]interface{}, len(sdk))
	for k, val := range sdk {
		if k == "client_ip" {
			continue
		}
		out[k] = val
	}
	return out
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
