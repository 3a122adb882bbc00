package service

import (
	"bytes"
	"time"

	historymodels "famtree/internal/history/models"
	"famtree/internal/person/models"
	id "famtree/pkg/domain"
)

// mutation accumulates the effects of one engine call on a loaded
// collection: persons it created, existing persons it touched together with
// their pre-images, and the records to log. It is committed with a single
// save.
type mutation struct {
	c   *models.Collection
	now time.Time

	created    []id.PersonID
	createdSet map[id.PersonID]struct{}
	before     map[id.PersonID]*models.Person
	touched    []id.PersonID
	changed    []id.PersonID
	changedSet map[id.PersonID]struct{}
	removed    []id.PersonID
	records    []historymodels.Record
}

func newMutation(c *models.Collection, now time.Time) *mutation {
	return &mutation{
		c:          c,
		now:        now,
		createdSet: make(map[id.PersonID]struct{}),
		before:     make(map[id.PersonID]*models.Person),
		changedSet: make(map[id.PersonID]struct{}),
	}
}

func (m *mutation) create(attrs models.Attributes) (*models.Person, error) {
	p, err := models.NewPerson(id.NewPersonID(), attrs, m.now)
	if err != nil {
		return nil, err
	}
	m.c.Put(p)
	m.created = append(m.created, p.ID)
	m.createdSet[p.ID] = struct{}{}
	m.markChanged(p.ID)
	return p, nil
}

// touch remembers the pre-image of an existing person the first time the
// mutation is about to modify it.
func (m *mutation) touch(p *models.Person) {
	if _, ok := m.createdSet[p.ID]; ok {
		return
	}
	if _, ok := m.before[p.ID]; ok {
		return
	}
	m.before[p.ID] = p.Clone()
	m.touched = append(m.touched, p.ID)
}

func (m *mutation) link(a, b *models.Person, kind models.RelationType, weddingDate string) bool {
	m.touch(a)
	m.touch(b)
	if !models.Link(a, b, kind, weddingDate) {
		return false
	}
	a.UpdatedAt = m.now
	b.UpdatedAt = m.now
	m.markChanged(a.ID, b.ID)
	return true
}

func (m *mutation) setEdge(a, b *models.Person, kind models.RelationType, st models.EdgeState) bool {
	m.touch(a)
	m.touch(b)
	if !models.SetEdge(a, b.ID, b, kind, st) {
		return false
	}
	a.UpdatedAt = m.now
	b.UpdatedAt = m.now
	m.markChanged(a.ID, b.ID)
	return true
}

func (m *mutation) record(rec historymodels.Record) {
	m.records = append(m.records, rec)
}

// recordCompound logs a create for every created person with its final
// relations and an update per touched neighbour carrying its relation-field
// deltas. Touched persons whose relations ended up unchanged are skipped.
func (m *mutation) recordCompound() {
	for _, personID := range m.created {
		m.record(historymodels.Created{Person: m.c.Lookup(personID).Clone()})
	}
	for _, personID := range m.touched {
		after := m.c.Lookup(personID)
		changes := relationDelta(m.before[personID], after)
		if len(changes) == 0 {
			continue
		}
		m.record(historymodels.Updated{Person: after.Clone(), Changes: changes})
	}
}

// markChanged notes persons whose post-mutation state should be announced.
func (m *mutation) markChanged(ids ...id.PersonID) {
	for _, personID := range ids {
		if _, ok := m.changedSet[personID]; ok {
			continue
		}
		m.changedSet[personID] = struct{}{}
		m.changed = append(m.changed, personID)
	}
}

// changedIDs lists created and modified persons in first-change order.
func (m *mutation) changedIDs() []id.PersonID {
	return m.changed
}

func relationDelta(before, after *models.Person) []models.FieldChange {
	var out []models.FieldChange
	for _, kind := range models.RelationTypes() {
		oldV, err := models.FieldValue(before, string(kind))
		if err != nil {
			continue
		}
		newV, err := models.FieldValue(after, string(kind))
		if err != nil {
			continue
		}
		if bytes.Equal(oldV, newV) {
			continue
		}
		out = append(out, models.FieldChange{Field: string(kind), OldValue: oldV, NewValue: newV})
	}
	return out
}
