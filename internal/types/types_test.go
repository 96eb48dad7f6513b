package types

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserContext_HasPermission(t *testing.T) {
	u := UserContext{UserID: uuid.Must(uuid.NewV4()), Permissions: []string{PermBlockUsers}}

	assert.True(t, u.HasPermission(PermBlockUsers))
	assert.False(t, u.HasPermission(PermDisableMailing))
	assert.False(t, u.SeesAll())
}

func TestUserContext_SeesAll(t *testing.T) {
	u := UserContext{Permissions: []string{PermDisableMailing}}
	assert.True(t, u.SeesAll())

	assert.False(t, UserContext{}.SeesAll())
}

func TestScope(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	s := UserContext{UserID: owner}.Scope()
	assert.Equal(t, owner.String(), s.Segment())
	assert.True(t, s.Allows(owner))
	assert.False(t, s.Allows(other))

	all := UserContext{UserID: owner, Permissions: []string{PermDisableMailing}}.Scope()
	assert.Equal(t, "all", all.Segment())
	assert.True(t, all.Allows(other))

	assert.Equal(t, OwnerScope(other), Scope{OwnerID: other})
}
