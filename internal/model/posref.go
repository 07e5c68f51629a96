package model

import (
	"time"

	"gorm.io/datatypes"
)

// PosRef is the stored link between an internal entity and its counterpart in
// an external POS system. It is always embedded in the entity it describes,
// never persisted standalone.
type PosRef struct {
	ExternalID string    `json:"external_id"`
	LastSync   time.Time `json:"last_sync"`
}

// PosRefs is persisted as a JSONB column mapping external system id → PosRef.
// The map key guarantees at most one reference per system.
type PosRefs = datatypes.JSONType[map[string]PosRef]

// PosRefOf looks up the reference for systemID, if any.
func PosRefOf(refs PosRefs, systemID string) (PosRef, bool) {
	m := refs.Data()
	if m == nil {
		return PosRef{}, false
	}
	ref, ok := m[systemID]
	return ref, ok
}

// WithPosRef returns a copy of refs with the entry for systemID replaced.
func WithPosRef(refs PosRefs, systemID string, ref PosRef) PosRefs {
	m := refs.Data()
	updated := make(map[string]PosRef, len(m)+1)
	for k, v := range m {
		updated[k] = v
	}
	updated[systemID] = ref
	return datatypes.NewJSONType(updated)
}
