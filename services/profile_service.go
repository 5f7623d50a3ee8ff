package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

type ProfileUpdate struct {
	Phone   *string
	Address *models.Address
}

type ProfileService struct {
	users UserStore
}

func NewProfileService(users UserStore) *ProfileService {
	return &ProfileService{users: users}
}

// Get returns the caller's contact details. A non-empty userID selects
// another user and is only allowed for admins.
func (s *ProfileService) Get(ctx context.Context, caller Caller, userID string) (models.Contact, error) {
	id, err := s.target(caller, userID)
	if err != nil {
		return models.Contact{}, err
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return models.Contact{}, NotFound("User not found")
	}
	if err != nil {
		return models.Contact{}, fmt.Errorf("find user: %w", err)
	}
	return user.Contact(), nil
}

// Update changes only the caller's phone and address.
func (s *ProfileService) Update(ctx context.Context, caller Caller, in ProfileUpdate) (models.Contact, error) {
	id, err := caller.ObjectID()
	if err != nil {
		return models.Contact{}, err
	}
	if in.Phone == nil && in.Address == nil {
		return models.Contact{}, Validation("Nothing to update")
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		in.Phone = &phone
	}

	user, err := s.users.UpdateContact(ctx, id, in.Phone, in.Address)
	if errors.Is(err, models.ErrNotFound) {
		return models.Contact{}, NotFound("User not found")
	}
	if err != nil {
		return models.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return user.Contact(), nil
}

func (s *ProfileService) target(caller Caller, userID string) (primitive.ObjectID, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return caller.ObjectID()
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, Validation("Invalid user id")
	}
	if err := Authorize(caller, id); err != nil {
		return primitive.NilObjectID, err
	}
	return id, nil
}
