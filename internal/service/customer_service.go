package service

import (
	"context"
	"fmt"

	"smrt/internal/models"
	"smrt/internal/store"
	"smrt/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService mirrors identity-provider accounts and manages addresses
type CustomerService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(store *store.Store) *CustomerService {
	return &CustomerService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// IdentityClaims is the profile the identity provider reports for a user
type IdentityClaims struct {
	ExternalID string `json:"external_id" validate:"required,max=255"`
	Name       string `json:"name" validate:"max=200"`
	Email      string `json:"email" validate:"omitempty,email"`
	ImageURL   string `json:"image_url" validate:"omitempty,url"`
}

// AddressRequest holds the lines of a shipping address
type AddressRequest struct {
	Address1 string `json:"address1" validate:"required,max=200"`
	Address2 string `json:"address2" validate:"max=200"`
	City     string `json:"city" validate:"required,max=100"`
	State    string `json:"state" validate:"max=100"`
	Zip      string `json:"zip" validate:"max=20"`
	Country  string `json:"country" validate:"required,max=100"`
}

// SyncUser creates or refreshes the local row for an external identity.
// The stored role is never changed by a sync.
func (s *CustomerService) SyncUser(ctx context.Context, claims *IdentityClaims) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.SyncUser")
	defer span.End()

	if err := validateStruct(claims); err != nil {
		return nil, err
	}

	user := &models.User{
		ExternalAuthID: claims.ExternalID,
		Name:           optionalString(claims.Name),
		Email:          optionalString(claims.Email),
		ImageURL:       optionalString(claims.ImageURL),
	}
	if err := s.store.UpsertUserByExternalAuthID(ctx, user); err != nil {
		recordViolation("sync_user", err)
		util.SpanError(span, err)
		return nil, err
	}
	return user, nil
}

// UpdateRole changes a user's role; unknown roles are rejected before the database
func (s *CustomerService) UpdateRole(ctx context.Context, userID uuid.UUID, role string) (*models.User, error) {
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	user, err := s.store.UpdateUserRole(ctx, userID, parsed)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User role updated",
		zap.String("user_id", userID.String()),
		zap.String("role", parsed.String()))
	return user, nil
}

// AddAddress stores a shipping address. A user's first address becomes the default.
func (s *CustomerService) AddAddress(ctx context.Context, userID uuid.UUID, req *AddressRequest) (*models.ShippingAddress, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.AddAddress")
	defer span.End()

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	addr := &models.ShippingAddress{
		UserID:   userID,
		Address1: optionalString(req.Address1),
		Address2: optionalString(req.Address2),
		City:     optionalString(req.City),
		State:    optionalString(req.State),
		Zip:      optionalString(req.Zip),
		Country:  optionalString(req.Country),
	}

	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		existing, err := tx.ListShippingAddresses(ctx, userID)
		if err != nil {
			return err
		}
		isDefault := len(existing) == 0
		addr.IsDefault = &isDefault
		return tx.CreateShippingAddress(ctx, addr)
	})
	if err != nil {
		recordViolation("add_address", err)
		util.SpanError(span, err)
		return nil, err
	}
	return addr, nil
}

// ListAddresses lists a user's addresses, default first
func (s *CustomerService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {
	return s.store.ListShippingAddresses(ctx, userID)
}

// SetDefaultAddress makes one of the user's addresses the default
func (s *CustomerService) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	return s.store.SetDefaultShippingAddress(ctx, userID, addressID)
}
