// Package event is the read model shared by the two event storage
// substrates: the relational row store (metadata plus a pointer into the
// blob store) and the columnar analytical store (denormalized, pre-flattened
// attributes). Callers hold a single *Event regardless of which substrate
// materialized it; every derived field behaves identically across the two.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/faultline-hq/faultline/internal/metrics"
	"github.com/faultline-hq/faultline/internal/normalize"
	"github.com/faultline-hq/faultline/internal/nodestore"
	"github.com/faultline-hq/faultline/internal/options"
)

// Group is the issue cluster an event has been assigned to. Membership can
// be reassigned post-hoc by merge/split operations outside this package.
type Group struct {
	ID        int64
	ProjectID int64
	Culprit   string
	Level     string
	ShortID   string
}

// Project is the owning project of an event.
type Project struct {
	ID      int64
	Slug    string
	Name    string
	OrgSlug string
	Options map[string]string
}

// GroupResolver looks up groups by id. A missing group is reported through
// the resolver's own not-found error and propagated unchanged.
type GroupResolver interface {
	GroupByID(ctx context.Context, id int64) (*Group, error)
}

// ProjectResolver looks up projects by id.
type ProjectResolver interface {
	ProjectByID(ctx context.Context, id int64) (*Project, error)
}

// Variant is one candidate grouping fingerprint for an event.
type Variant struct {
	Name string
	Hash string
}

// Grouper computes the candidate grouping variants for a raw payload. The
// order of the returned slice is assigned by the resolver and must be
// preserved by callers.
type Grouper interface {
	Variants(payload map[string]interface{}, config string) []Variant
}

// Deps bundles the external collaborators derived fields resolve through.
type Deps struct {
	Nodes      nodestore.Store
	Groups     GroupResolver
	Projects   ProjectResolver
	Grouper    Grouper
	Normalizer normalize.Normalizer
}

// Backing is the capability contract each storage variant implements.
// Exactly one Backing drives an Event for its whole lifetime; variants never
// convert into one another.
type Backing interface {
	// Variant names the backing ("postgres" or "snuba").
	Variant() string

	// Ident returns the caller-facing identity: the row id for stored
	// events, the event id string for snapshots (which have no row).
	Ident(e *Event) string

	// NextEvent and PrevEvent return the ordering neighbors within the
	// event's group, or nil when none exists or the variant does not
	// support neighbor lookups.
	NextEvent(ctx context.Context, e *Event) (*Event, error)
	PrevEvent(ctx context.Context, e *Event) (*Event, error)

	// Save persists the event through the variant's write path.
	Save(ctx context.Context, e *Event) error
}

// tagsProvider is implemented by backings that carry tags natively and do
// not need the raw payload to produce them.
type tagsProvider interface {
	ProvideTags() (Tags, bool)
}

// interfaceProvider is implemented by backings that can synthesize selected
// payload interfaces from their own columns.
type interfaceProvider interface {
	ProvideInterface(name string) (map[string]interface{}, bool)
}

// columnProvider is implemented by backings whose store holds authoritative
// denormalized copies of payload-derived fields. When a column is provided
// the payload is never consulted for that field, even though it would yield
// a consistent answer.
type columnProvider interface {
	TitleColumn() (string, bool)
	LocationColumn() (string, bool)
	CulpritColumn() (string, bool)
	IPAddressColumn() (string, bool)
	TypeColumn() (string, bool)
}

// Event is the uniform event read model.
type Event struct {
	// ID is the relational row id. Snapshot events have no row identity and
	// carry zero here; use Ident for a caller-facing identifier.
	ID        int64
	EventID   string
	ProjectID int64
	GroupID   int64
	Datetime  time.Time
	Platform  string
	Message   string
	TimeSpent *int64

	deps    Deps
	backing Backing
	cache   caches
}

// caches holds instance-local memoized derivations. They are populated on
// first access and deliberately excluded from the transfer representation
// (see State); receiving processes recompute them.
type caches struct {
	payload    map[string]interface{}
	interfaces map[string]map[string]interface{}
	group      *Group
	project    *Project
	hashes     []string
	hashesSet  bool
}

// Ident returns the caller-facing identity of this event.
func (e *Event) Ident() string {
	return e.backing.Ident(e)
}

// BackingVariant names the storage variant behind this event.
func (e *Event) BackingVariant() string {
	return e.backing.Variant()
}

// Data returns the raw payload body, fetched from the blob store on first
// use and cached for the instance's lifetime. Both backing variants resolve
// payloads through this single path, so the renormalization gate applies
// identically to each. A payload missing from the blob store yields an
// empty body, not an error.
func (e *Event) Data(ctx context.Context) (map[string]interface{}, error) {
	if e.cache.payload != nil {
		return e.cache.payload, nil
	}

	nodeID := GenerateNodeID(e.ProjectID, e.EventID)
	payload, err := e.deps.Nodes.Get(ctx, nodeID)
	if errors.Is(err, nodestore.ErrNotFound) {
		metrics.NodeFetches.WithLabelValues("miss").Inc()
		e.cache.payload = map[string]interface{}{}
		return e.cache.payload, nil
	}
	if err != nil {
		metrics.NodeFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load payload for event %s: %w", e.EventID, err)
	}
	metrics.NodeFetches.WithLabelValues("hit").Inc()

	e.cache.payload = e.normalizePayload(payload)
	return e.cache.payload, nil
}

// SetData binds a payload directly, bypassing the blob store fetch. Used on
// the ingestion write path where the body is already in hand.
func (e *Event) SetData(payload map[string]interface{}) {
	e.cache.payload = e.normalizePayload(payload)
	e.cache.interfaces = nil
	e.cache.hashes = nil
	e.cache.hashesSet = false
}

// normalizePayload applies the sampling-gated renormalization pass. The
// decision hashes the event id, so it is stable for this event across
// repeated loads even though the rate option is read at call time.
func (e *Event) normalizePayload(payload map[string]interface{}) map[string]interface{} {
	rate := options.Float64(options.RenormalizeSampleRate, 0)
	renormalize := normalize.SampleDecision(e.EventID, rate)
	metrics.PayloadRenormalized.WithLabelValues(boolLabel(renormalize)).Inc()

	if renormalize && e.deps.Normalizer != nil {
		return e.deps.Normalizer.Normalize(payload, true)
	}
	return normalize.CanonicalizeKeys(payload)
}

// Group resolves the event's group, memoized per instance. Not-found errors
// from the resolver propagate unchanged.
func (e *Event) Group(ctx context.Context) (*Group, error) {
	if e.cache.group != nil {
		return e.cache.group, nil
	}
	if e.deps.Groups == nil {
		return nil, fmt.Errorf("no group resolver configured")
	}

	group, err := e.deps.Groups.GroupByID(ctx, e.GroupID)
	if err != nil {
		return nil, err
	}
	e.cache.group = group
	return group, nil
}

// Project resolves the event's project, memoized per instance.
func (e *Event) Project(ctx context.Context) (*Project, error) {
	if e.cache.project != nil {
		return e.cache.project, nil
	}
	if e.deps.Projects == nil {
		return nil, fmt.Errorf("no project resolver configured")
	}

	project, err := e.deps.Projects.ProjectByID(ctx, e.ProjectID)
	if err != nil {
		return nil, err
	}
	e.cache.project = project
	return project, nil
}

// EventType returns the event's type name as used by the title/location
// strategies. Unknown or absent types resolve to the default strategy.
func (e *Event) EventType(ctx context.Context) (string, error) {
	if p, ok := e.backing.(columnProvider); ok {
		if v, ok := p.TypeColumn(); ok {
			return v, nil
		}
	}

	data, err := e.Data(ctx)
	if err != nil {
		return "", err
	}
	if s, ok := data["type"].(string); ok && s != "" {
		return s, nil
	}
	return TypeDefault, nil
}

// EventMetadata returns the type-specific metadata computed at ingestion
// time. Some historical events carry no metadata at all; those yield an
// empty map so derivation can hobble along.
func (e *Event) EventMetadata(ctx context.Context) (map[string]interface{}, error) {
	data, err := e.Data(ctx)
	if err != nil {
		return nil, err
	}
	if md, ok := data["metadata"].(map[string]interface{}); ok {
		return md, nil
	}
	return map[string]interface{}{}, nil
}

// Title derives the display title via the event-type strategy, unless the
// backing carries a denormalized title column.
func (e *Event) Title(ctx context.Context) (string, error) {
	if p, ok := e.backing.(columnProvider); ok {
		if v, ok := p.TitleColumn(); ok {
			return v, nil
		}
	}
	return e.deriveFromType(ctx, func(s typeStrategy, md map[string]interface{}) string {
		return s.Title(md)
	})
}

// Location derives the code location via the event-type strategy, unless
// the backing carries a denormalized location column.
func (e *Event) Location(ctx context.Context) (string, error) {
	if p, ok := e.backing.(columnProvider); ok {
		if v, ok := p.LocationColumn(); ok {
			return v, nil
		}
	}
	return e.deriveFromType(ctx, func(s typeStrategy, md map[string]interface{}) string {
		return s.Location(md)
	})
}

func (e *Event) deriveFromType(ctx context.Context, f func(typeStrategy, map[string]interface{}) string) (string, error) {
	typ, err := e.EventType(ctx)
	if err != nil {
		return "", err
	}
	md, err := e.EventMetadata(ctx)
	if err != nil {
		return "", err
	}
	return f(strategyFor(typ), md), nil
}

// Culprit returns the payload culprit, falling back to the group's culprit
// for the long stretch of history where events did not persist one.
func (e *Event) Culprit(ctx context.Context) (string, error) {
	if p, ok := e.backing.(columnProvider); ok {
		if v, ok := p.CulpritColumn(); ok {
			return v, nil
		}
	}

	data, err := e.Data(ctx)
	if err != nil {
		return "", err
	}
	if s, ok := data["culprit"].(string); ok && s != "" {
		return s, nil
	}

	group, err := e.Group(ctx)
	if err != nil {
		return "", err
	}
	return group.Culprit, nil
}

// IPAddress returns the best-known client address: the user interface's
// ip_address, else the request environment's REMOTE_ADDR.
func (e *Event) IPAddress(ctx context.Context) (string, error) {
	if p, ok := e.backing.(columnProvider); ok {
		if v, ok := p.IPAddressColumn(); ok {
			return v, nil
		}
	}

	data, err := e.Data(ctx)
	if err != nil {
		return "", err
	}
	if ip, ok := getPath(data, "user", "ip_address").(string); ok && ip != "" {
		return ip, nil
	}
	if addr, ok := getPath(data, "request", "env", "REMOTE_ADDR").(string); ok && addr != "" {
		return addr, nil
	}
	return "", nil
}

// LegacyMessage returns the log entry message, falling back to the legacy
// free-text message column. Still consumed by plugin-era callers.
func (e *Event) LegacyMessage(ctx context.Context) (string, error) {
	msg, err := e.RealMessage(ctx)
	if err != nil {
		return "", err
	}
	if msg != "" {
		return msg, nil
	}
	return e.Message, nil
}

// RealMessage is the formatted log entry message, or empty when the event
// carries none.
func (e *Event) RealMessage(ctx context.Context) (string, error) {
	data, err := e.Data(ctx)
	if err != nil {
		return "", err
	}
	if s, ok := getPath(data, "logentry", "formatted").(string); ok && s != "" {
		return s, nil
	}
	if s, ok := getPath(data, "logentry", "message").(string); ok && s != "" {
		return s, nil
	}
	return "", nil
}

// ProtocolVersion returns the SDK protocol version the payload was written
// with.
func (e *Event) ProtocolVersion(ctx context.Context) (string, error) {
	data, err := e.Data(ctx)
	if err != nil {
		return "", err
	}
	if s, ok := data["version"].(string); ok && s != "" {
		return s, nil
	}
	return "5", nil
}

// Size approximates the payload size from the rendered length of its
// values.
func (e *Event) Size(ctx context.Context) (int, error) {
	data, err := e.Data(ctx)
	if err != nil {
		return 0, err
	}
	size := 0
	for _, v := range data {
		size += len(fmt.Sprintf("%v", v))
	}
	return size, nil
}

// NextEvent returns the next event in the group by (datetime, id) ordering,
// or nil if there is none or the backing cannot answer.
func (e *Event) NextEvent(ctx context.Context) (*Event, error) {
	return e.backing.NextEvent(ctx, e)
}

// PrevEvent returns the previous event in the group by (datetime, id)
// ordering, or nil if there is none or the backing cannot answer.
func (e *Event) PrevEvent(ctx context.Context) (*Event, error) {
	return e.backing.PrevEvent(ctx, e)
}

// Save persists the event through its backing's write path. Snapshot-backed
// events are read-only and always fail.
func (e *Event) Save(ctx context.Context) error {
	return e.backing.Save(ctx, e)
}

// getPath walks nested maps by key, returning nil as soon as a step is
// missing or not a map.
func getPath(data map[string]interface{}, path ...string) interface{} {
	var current interface{} = data
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
