package eventbus

import "github.com/uniyakcom/cfcore/eventid"

// Subscriber is one slot in the bus's fixed-size table. Its address is
// stable for the slot's lifetime (the table is a plain array inside Bus),
// so a *Subscriber doubles as the opaque handle returned by Subscribe.
type Subscriber struct {
	active   bool
	id       eventid.ID
	callback Callback
	userData any
	mode     Mode
}

// matches reports whether this (active) subscriber should receive an
// event published with id published — either an exact match or a
// wildcard subscription (id == DomainWildcard/0 event 0, i.e. the
// subscriber's own id is the zero ID).
func (s *Subscriber) matches(published eventid.ID) bool {
	return s.active && (s.id == 0 || s.id == published)
}
