package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

func TestRoleAllows(t *testing.T) {
	tests := []struct {
		role                Role
		read, write, manage bool
	}{
		{RoleOwner, true, true, true},
		{RoleAdmin, true, true, true},
		{RoleEditor, true, true, false},
		{RoleViewer, true, false, false},
		{"", false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.read, tt.role.Allows(AccessRead))
			assert.Equal(t, tt.write, tt.role.Allows(AccessWrite))
			assert.Equal(t, tt.manage, tt.role.Allows(AccessManage))
		})
	}
}

func TestTreeMembership(t *testing.T) {
	now := time.Now()
	ownerID := id.UserID(id.NewPersonID())
	editor := id.UserID(id.NewPersonID())
	stranger := id.UserID(id.NewPersonID())

	tree, err := NewTree(id.NewTreeID(), "  Kowalski family ", ownerID, now)
	require.NoError(t, err)
	assert.Equal(t, "Kowalski family", tree.Name)
	assert.True(t, tree.Can(ownerID, AccessManage))

	require.NoError(t, tree.PutMember(editor, RoleViewer, now))
	assert.False(t, tree.Can(editor, AccessWrite))
	require.NoError(t, tree.PutMember(editor, RoleEditor, now))
	assert.True(t, tree.Can(editor, AccessWrite))
	assert.Len(t, tree.Members, 2)

	assert.False(t, tree.Can(stranger, AccessRead))

	err = tree.PutMember(stranger, RoleOwner, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	err = tree.PutMember(ownerID, RoleViewer, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	err = tree.RemoveMember(ownerID, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	err = tree.RemoveMember(stranger, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	require.NoError(t, tree.RemoveMember(editor, now))
	assert.False(t, tree.Can(editor, AccessRead))
}

func TestNewTreeValidation(t *testing.T) {
	_, err := NewTree(id.NewTreeID(), " ", id.UserID(id.NewPersonID()), time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewTree(id.NewTreeID(), "x", id.UserID{}, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestUserOwnerHasNoMembersToManage(t *testing.T) {
	userID := id.UserID(id.NewPersonID())
	o := NewUserOwner(userID, time.Now())
	assert.True(t, o.Can(userID, AccessWrite))
	err := o.PutMember(id.UserID(id.NewPersonID()), RoleViewer, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
