package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "famtree/pkg/domain-errors"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestApplyPatch(t *testing.T) {
	base := func(t *testing.T) *Person {
		p := newTestPerson(t, "Jan", GenderMale)
		p.LastName = "Kowalski"
		p.BirthDate = ExactDate(testNow)
		return p
	}

	t.Run("delta only holds changed keys", func(t *testing.T) {
		p := base(t)
		next, delta, err := ApplyPatch(p, Patch{
			"firstName": raw(`"Janek"`),
			"lastName":  raw(`"Kowalski"`),
		})
		require.NoError(t, err)
		assert.Equal(t, "Janek", next.FirstName)
		assert.Equal(t, "Jan", p.FirstName, "input must not be modified")
		require.Len(t, delta, 1)
		assert.Equal(t, "firstName", delta[0].Field)
		assert.JSONEq(t, `"Jan"`, string(delta[0].OldValue))
		assert.JSONEq(t, `"Janek"`, string(delta[0].NewValue))
	})

	t.Run("identical patch yields empty delta", func(t *testing.T) {
		p := base(t)
		_, delta, err := ApplyPatch(p, Patch{"lastName": raw(`"Kowalski"`), "gender": raw(`"male"`)})
		require.NoError(t, err)
		assert.Empty(t, delta)
	})

	t.Run("null clears field", func(t *testing.T) {
		p := base(t)
		next, delta, err := ApplyPatch(p, Patch{"birthDate": raw(`null`)})
		require.NoError(t, err)
		assert.Nil(t, next.BirthDate)
		require.Len(t, delta, 1)
		assert.JSONEq(t, `null`, string(delta[0].NewValue))
	})

	t.Run("setting a previously absent field", func(t *testing.T) {
		p := base(t)
		_, delta, err := ApplyPatch(p, Patch{"deathDate": raw(`{"type":"text","text":"winter 1990"}`)})
		require.NoError(t, err)
		require.Len(t, delta, 1)
		assert.JSONEq(t, `null`, string(delta[0].OldValue))
	})

	t.Run("delta is sorted by field", func(t *testing.T) {
		p := base(t)
		_, delta, err := ApplyPatch(p, Patch{"status": raw(`"deceased"`), "birthPlace": raw(`"Krakow"`)})
		require.NoError(t, err)
		require.Len(t, delta, 2)
		assert.Equal(t, "birthPlace", delta[0].Field)
		assert.Equal(t, "status", delta[1].Field)
	})

	rejects := []struct {
		name  string
		patch Patch
	}{
		{"relation field", Patch{"parents": raw(`[]`)}},
		{"identity field", Patch{"id": raw(`"x"`)}},
		{"unknown field", Patch{"nickname": raw(`"JJ"`)}},
		{"wrong type", Patch{"firstName": raw(`5`)}},
		{"invalid enum", Patch{"gender": raw(`"robot"`)}},
		{"invalid date", Patch{"birthDate": raw(`{"type":"exact","date":"yesterday"}`)}},
	}
	for _, tt := range rejects {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, _, err := ApplyPatch(base(t), tt.patch)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}
