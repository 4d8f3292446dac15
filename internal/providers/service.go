package providers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/inventiapp/stocktrack-backend/pkg/db"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

var (
	rucPattern   = regexp.MustCompile(`^[0-9]{11}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{6,15}$`)
)

// ProviderDTO is the provider payload returned to clients.
type ProviderDTO struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	RUC       string    `json:"ruc"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateProviderInput holds the validated payload to create a provider.
type CreateProviderInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	RUC       string
}

// UpdateProviderInput holds optional mutation values for a provider.
type UpdateProviderInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	RUC       *string
	IsActive  *bool
}

// Service exposes provider management operations.
type Service interface {
	CreateProvider(ctx context.Context, input CreateProviderInput) (*ProviderDTO, error)
	GetProvider(ctx context.Context, id uuid.UUID) (*ProviderDTO, error)
	ListProviders(ctx context.Context, includeInactive bool) ([]ProviderDTO, error)
	UpdateProvider(ctx context.Context, id uuid.UUID, input UpdateProviderInput) (*ProviderDTO, error)
	DeactivateProvider(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService constructs a provider service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("provider repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProvider(ctx context.Context, input CreateProviderInput) (*ProviderDTO, error) {
	provider := &models.Provider{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		RUC:       strings.TrimSpace(input.RUC),
		IsActive:  true,
	}
	if err := validateProvider(provider); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, provider)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "provider ruc already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating provider")
	}
	return toProviderDTO(created), nil
}

func (s *service) GetProvider(ctx context.Context, id uuid.UUID) (*ProviderDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	provider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProviderDTO(provider), nil
}

func (s *service) ListProviders(ctx context.Context, includeInactive bool) ([]ProviderDTO, error) {
	providers, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing providers")
	}
	out := make([]ProviderDTO, 0, len(providers))
	for i := range providers {
		out = append(out, *toProviderDTO(&providers[i]))
	}
	return out, nil
}

func (s *service) UpdateProvider(ctx context.Context, id uuid.UUID, input UpdateProviderInput) (*ProviderDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	provider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.FirstName != nil {
		provider.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		provider.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		provider.Email = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		provider.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.RUC != nil {
		provider.RUC = strings.TrimSpace(*input.RUC)
	}
	if input.IsActive != nil {
		provider.IsActive = *input.IsActive
	}
	if err := validateProvider(provider); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, provider)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "provider ruc already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating provider")
	}
	return toProviderDTO(updated), nil
}

// DeactivateProvider flips the active flag. Provider rows are never hard
// deleted so purchase history keeps its references.
func (s *service) DeactivateProvider(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	provider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !provider.IsActive {
		return nil
	}
	provider.IsActive = false
	if _, err := s.repo.Update(ctx, provider); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivating provider")
	}
	return nil
}

func validateProvider(provider *models.Provider) error {
	if provider.FirstName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider first name required")
	}
	if provider.LastName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider last name required")
	}
	if !emailPattern.MatchString(provider.Email) {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider email is invalid")
	}
	if !phonePattern.MatchString(provider.Phone) {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider phone is invalid")
	}
	if !rucPattern.MatchString(provider.RUC) {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider ruc must be 11 digits")
	}
	return nil
}

func toProviderDTO(provider *models.Provider) *ProviderDTO {
	return &ProviderDTO{
		ID:        provider.ID,
		FirstName: provider.FirstName,
		LastName:  provider.LastName,
		Email:     provider.Email,
		Phone:     provider.Phone,
		RUC:       provider.RUC,
		IsActive:  provider.IsActive,
		CreatedAt: provider.CreatedAt,
		UpdatedAt: provider.UpdatedAt,
	}
}
