package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/media-collect/internal/application/port"
	"github.com/garyjia/media-collect/internal/application/query"
	"github.com/garyjia/media-collect/internal/domain/entity"
	"github.com/garyjia/media-collect/internal/domain/event"
	"github.com/garyjia/media-collect/pkg/utils"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// MaxPasswordLength is the longest password bcrypt accepts, in bytes
const MaxPasswordLength = 72

// RegisterInput is a new account request
type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	ConfirmPassword  *string
	Role             entity.Role
	Phone            *string
	TelegramUsername *string
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *entity.User `json:"user"`
}

// UserService manages accounts and authentication
type UserService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Register creates an account with any role
	Register(ctx context.Context, in RegisterInput) (*entity.User, error)

	// SelfRegister creates a COLLECTOR account and, when a phone is given,
	// the matching collector profile
	SelfRegister(ctx context.Context, in RegisterInput) (*entity.User, error)

	ListUsers(ctx context.Context) ([]*entity.User, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
}

type userServiceImpl struct {
	users      port.UserRepository
	collectors port.CollectorRepository
	hasher     port.PasswordHasher
	tokens     port.TokenIssuer
	txManager  port.TransactionManager
	loader     *query.Loader
	events     EventPublisher
	logger     Logger
}

// NewUserService creates a new UserService
func NewUserService(
	users port.UserRepository,
	collectors port.CollectorRepository,
	hasher port.PasswordHasher,
	tokens port.TokenIssuer,
	txManager port.TransactionManager,
	loader *query.Loader,
	events EventPublisher,
	logger Logger,
) UserService {
	return &userServiceImpl{
		users:      users,
		collectors: collectors,
		hasher:     hasher,
		tokens:     tokens,
		txManager:  txManager,
		loader:     loader,
		events:     events,
		logger:     logger,
	}
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *userServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.logger.Info("Login rejected: unknown email")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Info("Login rejected: wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("Failed to issue token", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *userServiceImpl) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	return s.register(ctx, in, nil)
}

func (s *userServiceImpl) SelfRegister(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.Role = entity.RoleCollector

	phone := utils.TrimmedPtr(in.Phone)
	if phone == nil {
		return s.register(ctx, in, nil)
	}

	now := time.Now().UTC()
	profile := &entity.Collector{
		ID:               uuid.NewString(),
		Name:             utils.SanitizeString(in.Name),
		Phone:            *phone,
		TelegramUsername: utils.TrimmedPtr(in.TelegramUsername),
		CreatedAt:        now,
	}
	return s.register(ctx, in, profile)
}

func (s *userServiceImpl) register(ctx context.Context, in RegisterInput, profile *entity.Collector) (*entity.User, error) {
	user := &entity.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Name:      utils.SanitizeString(in.Name),
		Role:      in.Role,
		CreatedAt: time.Now().UTC(),
	}

	var errs ValidationErrors
	if user.Name == "" {
		errs.Add("name", "name is required")
	}
	if err := utils.ValidateEmail(user.Email); err != nil {
		errs.Add("email", "enter a valid email address")
	}
	if len(in.Password) < MinPasswordLength {
		errs.Add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	} else if len(in.Password) > MaxPasswordLength {
		errs.Add("password", fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}
	if in.ConfirmPassword != nil && *in.ConfirmPassword != in.Password {
		errs.Add("confirmPassword", "passwords do not match")
	}
	if !user.Role.IsValid() {
		errs.Add("role", "role must be one of ADMIN, SUPERVISOR, COLLECTOR")
	}
	if profile != nil {
		if err := utils.ValidatePhone(profile.Phone); err != nil {
			errs.Add("phone", "enter a valid phone number")
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		if profile != nil {
			return s.collectors.Create(ctx, profile)
		}
		return nil
	})
	if errors.Is(err, port.ErrDuplicate) {
		return nil, fmt.Errorf("email %s is already registered: %w", user.Email, ErrConflict)
	}
	if err != nil {
		s.logger.Error("Failed to register user", "email", user.Email, "error", err)
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	publish(ctx, s.events, s.logger, event.NewEvent(event.TypeUserRegistered, user.ID, user.ID, nil))
	if profile != nil {
		s.logger.Info("Collector profile created", "collector_id", profile.ID, "user_id", user.ID)
		publish(ctx, s.events, s.logger, event.NewEvent(event.TypeCollectorRegistered, profile.ID, user.ID, nil))
	}
	return user, nil
}

func (s *userServiceImpl) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return query.Load(ctx, s.loader, query.KeyUsers, func(ctx context.Context) ([]*entity.User, error) {
		users, err := s.users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		return users, nil
	})
}

func (s *userServiceImpl) GetUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := query.Load(ctx, s.loader, query.UserKey(id), func(ctx context.Context) (*entity.User, error) {
		return s.users.GetByID(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return user, nil
}
