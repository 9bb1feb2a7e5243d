package tag

import (
	"strconv"
	"time"
)

// Tag is the identifier assigned to a single request. A Tag is immutable
// after construction and owns no resources; the middleware creates exactly
// one per request and discards it when the request scope ends.
type Tag struct {
	sequence       uint64
	display        string
	instance       string
	issuedAt       time.Time
	clientSupplied bool
}

// New allocates exactly one identifier from g and wraps it in a Tag.
// Fails only if the generator is exhausted.
func New(g *Generator) (*Tag, error) {
	seq, err := g.Next()
	if err != nil {
		return nil, err
	}
	return &Tag{
		sequence: seq,
		display:  strconv.FormatUint(seq, 10),
		instance: g.Instance(),
		issuedAt: time.Now(),
	}, nil
}

// FromInbound wraps a client-supplied identifier in a Tag without consuming
// the generator's sequence. Only used when inbound IDs are trusted.
func FromInbound(id string) *Tag {
	return &Tag{
		display:        id,
		issuedAt:       time.Now(),
		clientSupplied: true,
	}
}

// Sequence returns the numeric identifier, or zero for client-supplied tags.
func (t *Tag) Sequence() uint64 {
	return t.sequence
}

// String returns the identifier's display form, the decimal rendering of
// the sequence value.
func (t *Tag) String() string {
	return t.display
}

// Instance returns the issuing generator's per-process instance ID.
// Empty for client-supplied tags.
func (t *Tag) Instance() string {
	return t.instance
}

// IssuedAt returns when the identifier was allocated.
func (t *Tag) IssuedAt() time.Time {
	return t.issuedAt
}

// ClientSupplied reports whether the identifier came from the client
// rather than the generator.
func (t *Tag) ClientSupplied() bool {
	return t.clientSupplied
}
