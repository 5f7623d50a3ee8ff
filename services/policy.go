package services

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// ObjectID parses the caller's id; an unparsable id means the token is unusable.
func (c Caller) ObjectID() (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.UserID))
	if err != nil {
		return primitive.NilObjectID, AuthRequired("Invalid or expired token")
	}
	return id, nil
}

// Allow is the owner-or-admin rule. owner may be an id, a hex string, or a
// populated user document.
func Allow(caller Caller, owner any) bool {
	if caller.IsAdmin() {
		return true
	}
	ownerID, ok := CanonicalID(owner)
	if !ok {
		return false
	}
	callerID, ok := CanonicalID(caller.UserID)
	return ok && callerID == ownerID
}

func Authorize(caller Caller, owner any) error {
	if !Allow(caller, owner) {
		return ErrForbidden
	}
	return nil
}

// CanonicalID normalises the supported reference forms to lowercase hex.
func CanonicalID(ref any) (string, bool) {
	switch v := ref.(type) {
	case primitive.ObjectID:
		if v.IsZero() {
			return "", false
		}
		return v.Hex(), true
	case *primitive.ObjectID:
		if v == nil {
			return "", false
		}
		return CanonicalID(*v)
	case models.User:
		return CanonicalID(v.ID)
	case *models.User:
		if v == nil {
			return "", false
		}
		return CanonicalID(v.ID)
	case string:
		id, err := primitive.ObjectIDFromHex(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			return "", false
		}
		return CanonicalID(id)
	default:
		return "", false
	}
}
