package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplight/shoplight-backend/pkg/db/models"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
	"github.com/shoplight/shoplight-backend/pkg/types"
)

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

// UserRepository defines the persistence surface the profile service needs.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error
	UpdateAddresses(ctx context.Context, id uuid.UUID, addresses types.AddressList) error
}

// AddressInput is one address book entry as submitted by the client.
type AddressInput struct {
	Line1   string `json:"line1" validate:"required,min=3"`
	City    string `json:"city" validate:"required,min=2"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
}

// ProfileDTO is the profile view returned to clients.
type ProfileDTO struct {
	ID          uuid.UUID         `json:"id"`
	Email       string            `json:"email"`
	DisplayName string            `json:"display_name"`
	Addresses   types.AddressList `json:"addresses"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Service manages the profile and address book.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error)
	UpdateDisplayName(ctx context.Context, userID uuid.UUID, name string) (ProfileDTO, error)
	AddAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (ProfileDTO, error)
	UpdateAddress(ctx context.Context, userID uuid.UUID, index int, input AddressInput) (ProfileDTO, error)
	DeleteAddress(ctx context.Context, userID uuid.UUID, index int) (ProfileDTO, error)
	MakeDefaultAddress(ctx context.Context, userID uuid.UUID, index int) (ProfileDTO, error)
}

type service struct {
	repo UserRepository
}

// NewService builds the profile service.
func NewService(repo UserRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

// Profile returns the user's profile.
func (s *service) Profile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}
	return toProfileDTO(user), nil
}

// UpdateDisplayName trims and title-cases the submitted name.
func (s *service) UpdateDisplayName(ctx context.Context, userID uuid.UUID, name string) (ProfileDTO, error) {
	name = TitleCaseName(name)
	if name == "" {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}
	if err := s.repo.UpdateDisplayName(ctx, userID, name); err != nil {
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update display name")
	}
	user.DisplayName = name
	return toProfileDTO(user), nil
}

// AddAddress appends a new address. The first address in the book becomes
// the default automatically.
func (s *service) AddAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (ProfileDTO, error) {
	address, err := validateAddress(input)
	if err != nil {
		return ProfileDTO{}, err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}

	address.Default = len(user.Addresses) == 0
	user.Addresses = append(user.Addresses, address).Normalize()
	return s.save(ctx, user)
}

// UpdateAddress replaces the entry at index, keeping its default flag.
func (s *service) UpdateAddress(ctx context.Context, userID uuid.UUID, index int, input AddressInput) (ProfileDTO, error) {
	address, err := validateAddress(input)
	if err != nil {
		return ProfileDTO{}, err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}
	if index < 0 || index >= len(user.Addresses) {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}

	address.Default = user.Addresses[index].Default
	user.Addresses[index] = address
	user.Addresses = user.Addresses.Normalize()
	return s.save(ctx, user)
}

// DeleteAddress removes the entry at index. Deleting the default promotes
// the first remaining address.
func (s *service) DeleteAddress(ctx context.Context, userID uuid.UUID, index int) (ProfileDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}
	if index < 0 || index >= len(user.Addresses) {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}

	user.Addresses = append(user.Addresses[:index], user.Addresses[index+1:]...).Normalize()
	return s.save(ctx, user)
}

// MakeDefaultAddress marks the entry at index as the shipping default.
func (s *service) MakeDefaultAddress(ctx context.Context, userID uuid.UUID, index int) (ProfileDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}
	if index < 0 || index >= len(user.Addresses) {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}

	for i := range user.Addresses {
		user.Addresses[i].Default = i == index
	}
	return s.save(ctx, user)
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) save(ctx context.Context, user *models.User) (ProfileDTO, error) {
	if err := s.repo.UpdateAddresses(ctx, user.ID, user.Addresses); err != nil {
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update addresses")
	}
	return toProfileDTO(user), nil
}

func validateAddress(input AddressInput) (types.Address, error) {
	line1 := strings.TrimSpace(input.Line1)
	city := strings.TrimSpace(input.City)
	pincode := strings.TrimSpace(input.Pincode)

	if len(line1) < 3 {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "address line is required")
	}
	if len(city) < 2 {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}
	if !pincodePattern.MatchString(pincode) {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "pincode must be six digits")
	}
	return types.Address{Line1: line1, City: city, Pincode: pincode}, nil
}

// TitleCaseName trims the name and uppercases the first letter of each
// word, matching how the storefront displays customer names.
func TitleCaseName(name string) string {
	fields := strings.Fields(name)
	for i, field := range fields {
		runes := []rune(strings.ToLower(field))
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}

func toProfileDTO(user *models.User) ProfileDTO {
	addresses := user.Addresses
	if addresses == nil {
		addresses = types.AddressList{}
	}
	return ProfileDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Addresses:   addresses,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
