package model

import "github.com/google/uuid"

// IDKind tags an EntityID as either a client-only placeholder or a
// server-assigned identifier.
type IDKind int

const (
	IDOptimistic IDKind = iota
	IDConfirmed
)

// EntityID makes the pending/confirmed distinction explicit instead of
// relying on a string-prefix sentinel. An optimistic id must never be
// treated as durable; the entity carrying it is replaced wholesale once
// the server assigns a real identifier.
type EntityID struct {
	Kind  IDKind
	Value string
}

// NewLocalID mints a fresh optimistic identifier.
func NewLocalID() EntityID {
	return EntityID{Kind: IDOptimistic, Value: uuid.NewString()}
}

// ConfirmedID wraps a server-assigned identifier.
func ConfirmedID(v string) EntityID {
	return EntityID{Kind: IDConfirmed, Value: v}
}

// Confirmed reports whether the id was assigned by the server.
func (id EntityID) Confirmed() bool { return id.Kind == IDConfirmed }

func (id EntityID) String() string { return id.Value }
