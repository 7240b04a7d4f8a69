package user

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-directory-service/internal/domain/user"
	pkgerrors "user-directory-service/pkg/errors"
	"user-directory-service/pkg/security"
)

// Messages returned to clients.
const (
	msgUserNotFound       = "User ID not found"
	msgInvalidUserID      = "Invalid user ID"
	msgInvalidCredentials = "Invalid credentials"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., PostgreSQL, SQLite, a cache in front of either) to be used interchangeably.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)               // Create a new user, returns its ID
	GetByID(ctx context.Context, id int64) (*domain.User, error)             // Retrieve user by ID, domain.ErrNotFound if missing
	GetByEmail(ctx context.Context, email string) (*domain.User, error)      // Retrieve user by email, nil if missing
	Update(ctx context.Context, id int64, patch domain.Patch) (int64, error) // Apply a partial update, returns rows updated
}

// Service implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Service struct {
	repo     Repository              // Repository for data access
	hasher   security.PasswordHasher // Password hashing and verification
	log      *zap.Logger             // Logger for structured logging
	validate *validator.Validate     // Validator for field formats
}

var _ Usecase = (*Service)(nil)

// New creates a new user Service.
func New(r Repository, hasher security.PasswordHasher, log *zap.Logger) *Service {
	return &Service{repo: r, hasher: hasher, log: log, validate: newValidator()}
}

// CreateUser creates a new user after validating the payload and checking email uniqueness.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	fields, verr := parseFields(in.Body, true)
	if verr != nil {
		s.log.Warn("create user payload rejected", zap.Error(verr))
		return nil, verr
	}
	if err := s.validate.Struct(fields); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	email := domain.CanonicalEmail(*fields.Email)
	s.log.Info("creating user", zap.String("email", email))

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.log.Error("failed to check existing email", zap.String("email", email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil {
		s.log.Warn("email already registered", zap.String("email", email), zap.Int64("existing_id", existing.ID))
		return nil, pkgerrors.NewEmailTakenError(email)
	}

	hash, err := s.hasher.Hash(*fields.Password)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to hash password", err)
	}

	id, err := s.repo.Create(ctx, &domain.User{
		FirstName:    *fields.FirstName,
		LastName:     *fields.LastName,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			s.log.Warn("email registered concurrently", zap.String("email", email))
			return nil, pkgerrors.NewEmailTakenError(email)
		}
		s.log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	s.log.Info("user created", zap.Int64("id", id))
	return &CreateUserResponse{ID: id}, nil
}

// GetUser retrieves a user by ID and returns it redacted.
func (s *Service) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	if in.ID <= 0 {
		s.log.Warn("get user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, pkgerrors.NewInvalidArgumentError(msgInvalidUserID)
	}

	u, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, pkgerrors.NewNotFoundError("user", msgUserNotFound)
		}
		s.log.Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}

	return &GetUserResponse{User: Redact(*u)}, nil
}

// UpdateUser applies a partial update on behalf of the owning user.
// Credentials are checked before the payload so that unauthenticated callers
// learn nothing about the field rules.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	if in.ID <= 0 {
		return nil, pkgerrors.NewInvalidArgumentError(msgInvalidUserID)
	}

	if err := s.authenticate(ctx, in.ID, in.Credentials); err != nil {
		return nil, err
	}

	fields, verr := parseFields(in.Body, false)
	if verr != nil {
		s.log.Warn("update user payload rejected", zap.Int64("id", in.ID), zap.Error(verr))
		return nil, verr
	}
	if err := s.validate.Struct(fields); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	patch := domain.Patch{FirstName: fields.FirstName, LastName: fields.LastName}

	if fields.Email != nil {
		email := domain.CanonicalEmail(*fields.Email)
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			s.log.Error("failed to check existing email", zap.String("email", email), zap.Error(err))
			return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
		}
		if existing != nil && existing.ID != in.ID {
			s.log.Warn("email already registered", zap.String("email", email), zap.Int64("existing_id", existing.ID))
			return nil, pkgerrors.NewEmailTakenError(email)
		}
		patch.Email = &email
	}

	if fields.Password != nil {
		hash, err := s.hasher.Hash(*fields.Password)
		if err != nil {
			return nil, pkgerrors.NewInternalError("failed to hash password", err)
		}
		patch.PasswordHash = &hash
	}

	s.log.Info("updating user", zap.Int64("id", in.ID))

	updated, err := s.repo.Update(ctx, in.ID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, pkgerrors.NewEmailTakenError(*patch.Email)
		}
		s.log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to update user", err)
	}

	return &UpdateUserResponse{Updated: updated}, nil
}

// authenticate checks that creds belong to the user with the given id.
// Every failure yields the same error.
func (s *Service) authenticate(ctx context.Context, id int64, creds Credentials) error {
	denied := pkgerrors.NewUnauthorizedError(msgInvalidCredentials)

	if creds.Email == "" {
		s.log.Warn("update without credentials", zap.Int64("id", id))
		return denied
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("credentials for unknown user", zap.Int64("id", id))
			return denied
		}
		s.log.Error("failed to load user for authentication", zap.Int64("id", id), zap.Error(err))
		return pkgerrors.NewInternalError("failed to authenticate", err)
	}

	if u.Email != domain.CanonicalEmail(creds.Email) {
		s.log.Warn("credentials email mismatch", zap.Int64("id", id))
		return denied
	}

	if err := s.hasher.Compare(u.PasswordHash, creds.Password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			s.log.Error("password comparison failed", zap.Int64("id", id), zap.Error(err))
		} else {
			s.log.Warn("password mismatch", zap.Int64("id", id))
		}
		return denied
	}

	return nil
}
