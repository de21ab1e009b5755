package auth

import (
	"testing"

	"github.com/gearup/storefront/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def", "abc.def", false},
		{"missing", "", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"lowercase scheme", "bearer abc", "", true},
		{"empty token", "Bearer   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthenticated)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleResolver(t *testing.T) {
	r := RoleResolver{AdminDomain: "gearup.com"}

	assert.Equal(t, models.RoleAdmin, r.Resolve(map[string]interface{}{"admin": true}, "someone@example.com"))
	assert.Equal(t, models.RoleAdmin, r.Resolve(nil, "Staff@GearUp.com"))
	assert.Equal(t, models.RoleUser, r.Resolve(map[string]interface{}{"admin": "true"}, "x@example.com"))
	assert.Equal(t, models.RoleUser, r.Resolve(nil, "x@notgearup.com"))
	assert.Equal(t, models.RoleUser, r.Resolve(map[string]interface{}{"admin": false}, ""))

	withAt := RoleResolver{AdminDomain: "@gearup.com"}
	assert.Equal(t, models.RoleAdmin, withAt.Resolve(nil, "ops@gearup.com"))

	none := RoleResolver{}
	assert.Equal(t, models.RoleUser, none.Resolve(nil, "ops@gearup.com"))
}

func TestRoleOf(t *testing.T) {
	r := RoleResolver{AdminDomain: "gearup.com"}
	assert.Equal(t, models.RoleAdmin, r.RoleOf(DirectoryUser{Admin: true, Email: "a@example.com"}))
	assert.Equal(t, models.RoleUser, r.RoleOf(DirectoryUser{Email: "a@example.com"}))
}

func TestIdentityIsAdmin(t *testing.T) {
	var nilIdentity *Identity
	assert.False(t, nilIdentity.IsAdmin())
	assert.True(t, (&Identity{Role: models.RoleAdmin}).IsAdmin())
	assert.False(t, (&Identity{Role: models.RoleUser}).IsAdmin())
}

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, RequireAdmin(nil), ErrUnauthenticated)
	assert.ErrorIs(t, RequireAdmin(&Identity{UID: "u1", Role: models.RoleUser}), ErrForbidden)
	assert.NoError(t, RequireAdmin(&Identity{UID: "u2", Role: models.RoleAdmin}))
}
