package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	id "famtree/pkg/domain"
)

// Collection is an owner's complete person graph. It is loaded, mutated and
// saved as one document.
type Collection struct {
	Owner     id.OwnerRef
	Persons   map[id.PersonID]*Person
	UpdatedAt time.Time
}

func NewCollection(owner id.OwnerRef) *Collection {
	return &Collection{Owner: owner, Persons: make(map[id.PersonID]*Person)}
}

func (c *Collection) Get(personID id.PersonID) (*Person, bool) {
	p, ok := c.Persons[personID]
	return p, ok
}

// Lookup adapts Get to the read-only lookup signature used by projections.
func (c *Collection) Lookup(personID id.PersonID) *Person {
	return c.Persons[personID]
}

func (c *Collection) Put(p *Person) {
	p.normalizeRelations()
	c.Persons[p.ID] = p
}

func (c *Collection) Remove(personID id.PersonID) {
	delete(c.Persons, personID)
}

func (c *Collection) Len() int {
	return len(c.Persons)
}

// List returns persons ordered by creation time, then id.
func (c *Collection) List() []*Person {
	out := make([]*Person, 0, len(c.Persons))
	for _, p := range c.Persons {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Person) int {
		if cmp := a.CreatedAt.Compare(b.CreatedAt); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// Clone deep-copies every person so simulations can mutate freely.
func (c *Collection) Clone() *Collection {
	out := &Collection{Owner: c.Owner, Persons: make(map[id.PersonID]*Person, len(c.Persons)), UpdatedAt: c.UpdatedAt}
	for k, p := range c.Persons {
		out.Persons[k] = p.Clone()
	}
	return out
}

type collectionDocument struct {
	Persons   []*Person `json:"persons"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalDocument encodes the collection as its storage document.
func (c *Collection) MarshalDocument() ([]byte, error) {
	return json.Marshal(collectionDocument{Persons: c.List(), UpdatedAt: c.UpdatedAt})
}

// UnmarshalDocument decodes a storage document for owner.
func UnmarshalDocument(owner id.OwnerRef, data []byte) (*Collection, error) {
	var doc collectionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	c := NewCollection(owner)
	c.UpdatedAt = doc.UpdatedAt
	for _, p := range doc.Persons {
		if p == nil {
			continue
		}
		c.Put(p)
	}
	return c, nil
}
