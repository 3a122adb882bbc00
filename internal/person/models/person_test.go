package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestPerson(t *testing.T, first string, g Gender) *Person {
	t.Helper()
	p, err := NewPerson(id.NewPersonID(), Attributes{Gender: g, FirstName: first}, testNow)
	require.NoError(t, err)
	return p
}

func TestNewPerson(t *testing.T) {
	t.Run("defaults and trims", func(t *testing.T) {
		p, err := NewPerson(id.NewPersonID(), Attributes{Gender: GenderFemale, FirstName: "  Anna "}, testNow)
		require.NoError(t, err)
		assert.Equal(t, "Anna", p.FirstName)
		assert.Equal(t, StatusAlive, p.Status)
		assert.Empty(t, p.Parents)
		assert.NotNil(t, p.Parents)
		assert.NotNil(t, p.Spouses)
		assert.Equal(t, testNow, p.CreatedAt)
	})

	tests := []struct {
		name  string
		attrs Attributes
	}{
		{"missing gender", Attributes{FirstName: "x"}},
		{"bad gender", Attributes{Gender: "robot"}},
		{"bad status", Attributes{Gender: GenderMale, Status: "missing"}},
		{"bad exact date", Attributes{Gender: GenderMale, BirthDate: &DateDescriptor{Type: DateExact, Date: "02/04/1950"}}},
		{"empty text date", Attributes{Gender: GenderMale, DeathDate: &DateDescriptor{Type: DateText}}},
		{"mixed date", Attributes{Gender: GenderMale, BirthDate: &DateDescriptor{Type: DateExact, Date: "1950-04-02", Text: "x"}}},
		{"unknown date type", Attributes{Gender: GenderMale, BirthDate: &DateDescriptor{Type: "roughly"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPerson(id.NewPersonID(), tt.attrs, testNow)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := newTestPerson(t, "Jan", GenderMale)
	b := newTestPerson(t, "Eva", GenderFemale)
	a.BirthDate = TextDate("about 1900")
	Link(a, b, RelationSpouses, "1920-05-01")

	c := a.Clone()
	c.Spouses[0].WeddingDate = "1999-01-01"
	c.BirthDate.Text = "changed"
	c.Parents = append(c.Parents, id.NewPersonID())

	assert.Equal(t, "1920-05-01", a.Spouses[0].WeddingDate)
	assert.Equal(t, "about 1900", a.BirthDate.Text)
	assert.Empty(t, a.Parents)
}

func TestGenderOpposite(t *testing.T) {
	g, ok := GenderMale.Opposite()
	assert.True(t, ok)
	assert.Equal(t, GenderFemale, g)

	_, ok = GenderNonBinary.Opposite()
	assert.False(t, ok)
}

func TestParseRelationType(t *testing.T) {
	r, err := ParseRelationType("siblings")
	require.NoError(t, err)
	assert.Equal(t, RelationSiblings, r)
	assert.Equal(t, RelationChildren, RelationParents.Inverse())
	assert.Equal(t, RelationSpouses, RelationSpouses.Inverse())

	_, err = ParseRelationType("cousins")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRelationType))
}

func TestCollectionDocumentRoundTrip(t *testing.T) {
	owner := id.UserOwner(id.UserID(id.NewPersonID()))
	c := NewCollection(owner)
	a := newTestPerson(t, "Jan", GenderMale)
	b := newTestPerson(t, "Anna", GenderFemale)
	b.CreatedAt = testNow.Add(time.Minute)
	Link(a, b, RelationChildren, "")
	c.Put(a)
	c.Put(b)

	raw, err := c.MarshalDocument()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"siblings":[]`)

	got, err := UnmarshalDocument(owner, raw)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, []id.PersonID{a.ID}, got.Lookup(b.ID).Parents)
	assert.Equal(t, a.ID, got.List()[0].ID)
	assert.Empty(t, CheckInvariants(got))
}
