package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

func TestAllow(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	user := Caller{UserID: owner.Hex(), Role: models.RoleUser}
	admin := Caller{UserID: other.Hex(), Role: models.RoleAdmin}

	tests := []struct {
		name   string
		caller Caller
		owner  any
		want   bool
	}{
		{"owner by id", user, owner, true},
		{"owner by pointer", user, &owner, true},
		{"owner by populated user", user, models.User{ID: owner}, true},
		{"owner by user pointer", user, &models.User{ID: owner}, true},
		{"owner by uppercase hex", user, strings.ToUpper(owner.Hex()), true},
		{"other user", user, other, false},
		{"nil pointer", user, (*primitive.ObjectID)(nil), false},
		{"garbage owner", user, "not-an-id", false},
		{"unsupported type", user, 42, false},
		{"admin bypasses ownership", admin, owner, true},
		{"admin with unresolvable owner", admin, nil, true},
		{"caller with bad id", Caller{UserID: "x"}, owner, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allow(tt.caller, tt.owner))
		})
	}
}

func TestAuthorize(t *testing.T) {
	owner := primitive.NewObjectID()
	err := Authorize(Caller{UserID: primitive.NewObjectID().Hex(), Role: models.RoleUser}, owner)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, Authorize(Caller{UserID: owner.Hex()}, owner))
}
