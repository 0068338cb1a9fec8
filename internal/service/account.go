package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/store"
	"storefront/internal/util"
)

// AccountService handles registration, login, and account-scoped data
type AccountService struct {
	store  *store.Store
	redis  *redisclient.Client
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store *store.Store, redis *redisclient.Client, tokens *auth.TokenManager) *AccountService {
	return &AccountService{
		store:  store,
		redis:  redis,
		tokens: tokens,
		logger: util.GetLogger(),
	}
}

// RegisterRequest carries registration input
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=2"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse returns the signed session token and the user
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new user account. A duplicate email surfaces as
// store.ErrDuplicateEmail and no second account is created.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return &AuthResponse{Token: token, User: user}, nil
}

// Login checks credentials and issues a session token. Unknown emails
// and wrong passwords produce the same error.
func (s *AccountService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, fmt.Errorf("invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// GetProfile returns the user's account record
func (s *AccountService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// UpdateProfile updates username and email
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, username, email string) (*models.User, error) {
	if username == "" || email == "" {
		return nil, fmt.Errorf("username and email are required")
	}
	if err := s.store.UpdateUserProfile(ctx, userID, strings.TrimSpace(username),
		strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, userID)
}

// ChangePassword verifies the old password, stores the new hash, and
// revokes tokens issued before the change
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("new password must be at least 8 characters")
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, oldPassword) {
		return fmt.Errorf("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}

	if s.redis != nil {
		if err := s.redis.RevokeTokensBefore(ctx, userID, time.Now(), 30*24*time.Hour); err != nil {
			s.logger.Warn("Failed to set token revocation cutoff",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// DeleteAccount removes the user and cascading data
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64) error {
	return s.store.DeleteUser(ctx, userID)
}

// ListUsers pages over all users for the back office
func (s *AccountService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.store.GetUsers(ctx, limit, offset)
}

// SetUserRole changes a user's role
func (s *AccountService) SetUserRole(ctx context.Context, userID int64, role string) error {
	return s.store.UpdateUserRole(ctx, userID, role)
}

// ListAddresses lists the user's addresses, default first
func (s *AccountService) ListAddresses(ctx context.Context, userID int64) ([]models.Address, error) {
	return s.store.GetAddressesByUserID(ctx, userID)
}

// CreateAddress adds a new address for the user
func (s *AccountService) CreateAddress(ctx context.Context, a *models.Address) error {
	if a.Street == "" || a.City == "" || a.Country == "" {
		return fmt.Errorf("street, city and country are required")
	}
	return s.store.CreateAddress(ctx, a)
}

// UpdateAddress edits an address the user owns
func (s *AccountService) UpdateAddress(ctx context.Context, a *models.Address) error {
	return s.store.UpdateAddress(ctx, a)
}

// SetDefaultAddress makes one address the default, atomically
func (s *AccountService) SetDefaultAddress(ctx context.Context, userID, addressID int64) error {
	if _, err := s.store.GetAddressByID(ctx, addressID, userID); err != nil {
		return err
	}
	return s.store.SetDefaultAddress(ctx, userID, addressID)
}

// DeleteAddress removes an address the user owns
func (s *AccountService) DeleteAddress(ctx context.Context, userID, addressID int64) error {
	return s.store.DeleteAddress(ctx, addressID, userID)
}

// GetPreferences loads the user's preferences
func (s *AccountService) GetPreferences(ctx context.Context, userID int64) (*models.UserPreferences, error) {
	return s.store.GetPreferences(ctx, userID)
}

// SavePreferences upserts the user's preferences
func (s *AccountService) SavePreferences(ctx context.Context, p *models.UserPreferences) error {
	if p.Language == "" {
		p.Language = "en"
	}
	return s.store.UpsertPreferences(ctx, p)
}
