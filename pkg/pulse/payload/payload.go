// Package payload defines the immutable records pulse hands to integrations.
//
// Every payload is built through a validating constructor (NewTrack,
// NewIdentify, NewScreen, NewGroup, NewAlias). Constructors deep-copy every
// map they are given and getters return copies, so a payload never changes
// after it is built and every integration observes the same snapshot.
package payload

import (
	"strings"
	"time"

	"github.com/google/uuid"

	perrors "github.com/randalmurphal/pulse/pkg/pulse/errors"
)

// Type identifies a payload variant.
type Type string

// Payload types.
const (
	TypeIdentify Type = "identify"
	TypeTrack    Type = "track"
	TypeScreen   Type = "screen"
	TypeGroup    Type = "group"
	TypeAlias    Type = "alias"
)

// Well-known property and trait keys.
const (
	TraitUserID      = "userId"
	TraitAnonymousID = "anonymousId"

	PropertyName     = "name"
	PropertyCategory = "category"
	PropertyURL      = "url"
	PropertyVersion  = "version"
	PropertyBuild    = "build"
)

// Payload is the common view of every payload variant.
type Payload interface {
	Type() Type
	MessageID() string
	Timestamp() time.Time
	UserID() string
	AnonymousID() string

	// Context returns a copy of the payload context.
	Context() *ValueMap

	// Integrations returns a copy of the per-call integration switches.
	Integrations() map[string]bool

	meta() *Metadata
}

// Identity correlates a payload with a user.
type Identity struct {
	UserID      string
	AnonymousID string
}

// Metadata holds the fields shared by every payload variant.
type Metadata struct {
	id           string
	typ          Type
	timestamp    time.Time
	userID       string
	anonymousID  string
	context      *ValueMap
	integrations map[string]bool
}

func newMetadata(typ Type, id Identity, opts *Options) Metadata {
	ts := opts.Timestamp()
	if ts.IsZero() {
		ts = time.Now()
	}
	return Metadata{
		id:           uuid.New().String(),
		typ:          typ,
		timestamp:    ts.UTC(),
		userID:       id.UserID,
		anonymousID:  id.AnonymousID,
		context:      opts.Context(),
		integrations: opts.Integrations(),
	}
}

// Type returns the payload variant.
func (m *Metadata) Type() Type { return m.typ }

// MessageID returns the unique message identifier.
func (m *Metadata) MessageID() string { return m.id }

// Timestamp returns when the payload was built, in UTC.
func (m *Metadata) Timestamp() time.Time { return m.timestamp }

// UserID returns the user id, possibly empty.
func (m *Metadata) UserID() string { return m.userID }

// AnonymousID returns the anonymous id.
func (m *Metadata) AnonymousID() string { return m.anonymousID }

// Context returns a copy of the payload context.
func (m *Metadata) Context() *ValueMap { return m.context.Clone() }

// Integrations returns a copy of the integration switches.
func (m *Metadata) Integrations() map[string]bool { return copySwitches(m.integrations) }

func (m *Metadata) meta() *Metadata { return m }

// Identify associates a user with their traits.
type Identify struct {
	Metadata
	traits *ValueMap
}

// Track records an action the user performed.
type Track struct {
	Metadata
	event      string
	properties *ValueMap
}

// Screen records a screen view.
type Screen struct {
	Metadata
	name       string
	category   string
	properties *ValueMap
}

// Group associates the user with a group.
type Group struct {
	Metadata
	groupID string
	traits  *ValueMap
}

// Alias links a new user id to the previous identity.
type Alias struct {
	Metadata
	previousID string
}

var (
	_ Payload = (*Identify)(nil)
	_ Payload = (*Track)(nil)
	_ Payload = (*Screen)(nil)
	_ Payload = (*Group)(nil)
	_ Payload = (*Alias)(nil)
)

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func required(field, value string) error {
	if isBlank(value) {
		return perrors.InvalidArgument(field, field+" must not be null or empty.")
	}
	return nil
}

// NewIdentify builds an Identify payload. id.UserID must not be blank.
func NewIdentify(id Identity, traits *Traits, opts *Options) (*Identify, error) {
	if err := required("userId", id.UserID); err != nil {
		return nil, err
	}
	return &Identify{
		Metadata: newMetadata(TypeIdentify, id, opts),
		traits:   traits.Clone(),
	}, nil
}

// NewTrack builds a Track payload. event must not be blank.
func NewTrack(id Identity, event string, props *Properties, opts *Options) (*Track, error) {
	if err := required("event", event); err != nil {
		return nil, err
	}
	return &Track{
		Metadata:   newMetadata(TypeTrack, id, opts),
		event:      event,
		properties: props.Clone(),
	}, nil
}

// NewScreen builds a Screen payload. name must not be blank; category may be.
func NewScreen(id Identity, name, category string, props *Properties, opts *Options) (*Screen, error) {
	if err := required("name", name); err != nil {
		return nil, err
	}
	return &Screen{
		Metadata:   newMetadata(TypeScreen, id, opts),
		name:       name,
		category:   category,
		properties: props.Clone(),
	}, nil
}

// NewGroup builds a Group payload. groupID must not be blank.
func NewGroup(id Identity, groupID string, traits *Traits, opts *Options) (*Group, error) {
	if err := required("groupId", groupID); err != nil {
		return nil, err
	}
	return &Group{
		Metadata: newMetadata(TypeGroup, id, opts),
		groupID:  groupID,
		traits:   traits.Clone(),
	}, nil
}

// NewAlias builds an Alias payload for newID. The previous id is the
// identity's user id, or its anonymous id when no user is identified.
func NewAlias(id Identity, newID string, opts *Options) (*Alias, error) {
	if err := required("newId", newID); err != nil {
		return nil, err
	}
	previous := id.UserID
	if isBlank(previous) {
		previous = id.AnonymousID
	}
	return &Alias{
		Metadata:   newMetadata(TypeAlias, Identity{UserID: newID, AnonymousID: id.AnonymousID}, opts),
		previousID: previous,
	}, nil
}

// Traits returns a copy of the identified traits.
func (p *Identify) Traits() *Traits { return p.traits.Clone() }

// Event returns the event name.
func (p *Track) Event() string { return p.event }

// Properties returns a copy of the event properties.
func (p *Track) Properties() *Properties { return p.properties.Clone() }

// Name returns the screen name.
func (p *Screen) Name() string { return p.name }

// Category returns the screen category, possibly empty.
func (p *Screen) Category() string { return p.category }

// Properties returns a copy of the screen properties.
func (p *Screen) Properties() *Properties { return p.properties.Clone() }

// GroupID returns the group id.
func (p *Group) GroupID() string { return p.groupID }

// Traits returns a copy of the group traits.
func (p *Group) Traits() *Traits { return p.traits.Clone() }

// PreviousID returns the id being aliased.
func (p *Alias) PreviousID() string { return p.previousID }
