// Package idmap implements the bijection between external (string) node
// identifiers and the dense internal indices the rest of the engine
// operates on.
package idmap

// Mapper is an immutable external<->internal id bijection, built once at
// startup from the binary model's node table and shared read-only across
// all queries.
type Mapper struct {
	externalToInternal map[string]int
	internalToExternal []string
}

// New builds a Mapper from externalIDs, where externalIDs[i] is the
// canonical external id of dense internal node i. Duplicate external ids
// are rejected; the first wins is not an option here because aliasing two
// external ids to the same node would break the canonical external id
// round-trip callers rely on.
func New(externalIDs []string) (*Mapper, error) {
	m := &Mapper{
		externalToInternal: make(map[string]int, len(externalIDs)),
		internalToExternal: append([]string(nil), externalIDs...),
	}
	for i, id := range externalIDs {
		if _, dup := m.externalToInternal[id]; dup {
			return nil, &duplicateExternalIDError{id: id}
		}
		m.externalToInternal[id] = i
	}
	return m, nil
}

type duplicateExternalIDError struct{ id string }

func (e *duplicateExternalIDError) Error() string {
	return "idmap: duplicate external id " + e.id
}

// Internal resolves an external id to its dense internal index.
func (m *Mapper) Internal(externalID string) (int, bool) {
	idx, ok := m.externalToInternal[externalID]
	return idx, ok
}

// External resolves a dense internal index to its canonical external id.
// ok is false if internalID is out of range.
func (m *Mapper) External(internalID int) (string, bool) {
	if internalID < 0 || internalID >= len(m.internalToExternal) {
		return "", false
	}
	return m.internalToExternal[internalID], true
}

// Len reports the number of mapped nodes.
func (m *Mapper) Len() int { return len(m.internalToExternal) }
