// Package accounts manages admin-area users: listing, creation, role
// assignment, deletion, password changes and login checks.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"nietladen/internal/apperr"
	"nietladen/internal/auth"
	"nietladen/internal/models"
	"nietladen/internal/store"
	"nietladen/internal/validation"
)

// Service exposes account administration.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// New creates an account service.
func New(st store.Store, logger *zap.Logger) *Service {
	return &Service{store: st, logger: logger.Named("accounts")}
}

// CreateInput carries a new account.
type CreateInput struct {
	Email    string        `json:"email"`
	Name     string        `json:"name"`
	Password string        `json:"password"`
	Roles    []models.Role `json:"roles"`
}

func normaliseRoles(roles []models.Role) ([]models.Role, error) {
	out := make([]models.Role, 0, len(roles))
	for _, r := range roles {
		r = models.Role(strings.ToUpper(strings.TrimSpace(string(r))))
		if !models.ValidRole(r) {
			return nil, apperr.Validation(fmt.Sprintf("invalid role %q", r))
		}
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func checkPasswordLength(password string) error {
	if len(password) < auth.MinPasswordLength {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	return nil
}

// List returns every account.
func (s *Service) List(ctx context.Context, caller models.Caller) ([]models.User, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleUserAdmin); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Create adds an account with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, caller models.Caller, in CreateInput) (*models.User, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleUserAdmin); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// Ensure creates the account unless its e-mail is already registered.
// It is used to seed the first administrator and is not role gated.
func (s *Service) Ensure(ctx context.Context, in CreateInput) (*models.User, bool, error) {
	existing, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(in.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}
	u, err := s.create(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *Service) create(ctx context.Context, in CreateInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validation.ValidateEmail(email) {
		return nil, apperr.Validation("invalid email address")
	}
	name := strings.TrimSpace(in.Name)
	if ok, msg := validation.ValidateName(name); !ok {
		return nil, apperr.Validation(msg)
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return nil, err
	}
	roles, err := normaliseRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{Email: email, Name: name, PasswordHash: hash, Roles: roles}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	s.logger.Info("user created", zap.Int64("user_id", u.ID), zap.Any("roles", roles))
	return u, nil
}

// SetRoles replaces the roles of an account.
func (s *Service) SetRoles(ctx context.Context, caller models.Caller, id int64, roles []models.Role) (*models.User, error) {
	if err := auth.RequireRole(caller.Roles, models.RoleUserAdmin); err != nil {
		return nil, err
	}
	roles, err := normaliseRoles(roles)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateUserRoles(ctx, id, roles); err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	s.logger.Info("user roles updated", zap.Int64("user_id", id), zap.Any("roles", roles), zap.Int64("by", caller.UserID))
	return u, nil
}

// Delete removes an account. Administrators cannot delete themselves.
func (s *Service) Delete(ctx context.Context, caller models.Caller, id int64) error {
	if err := auth.RequireRole(caller.Roles, models.RoleUserAdmin); err != nil {
		return err
	}
	if id == caller.UserID {
		return apperr.Validation("you cannot delete your own account")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return apperr.FromStore(err, "user")
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id), zap.Int64("by", caller.UserID))
	return nil
}

// ChangePassword sets a new password for the calling user after checking
// the current one.
func (s *Service) ChangePassword(ctx context.Context, caller models.Caller, current, next string) error {
	if caller.Anonymous() {
		return apperr.Auth("unauthorized")
	}
	if current == "" || next == "" {
		return apperr.Validation("current and new password are required")
	}
	if err := checkPasswordLength(next); err != nil {
		return err
	}

	u, err := s.store.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return apperr.FromStore(err, "user")
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return apperr.Validation("current password is incorrect")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, u.ID, hash); err != nil {
		return apperr.FromStore(err, "user")
	}
	s.logger.Info("password changed", zap.Int64("user_id", u.ID))
	return nil
}

// Authenticate returns the user for a matching e-mail and password. Unknown
// e-mails and wrong passwords give the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Auth("invalid credentials")
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Auth("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Auth("invalid credentials")
	}
	return u, nil
}

// Lookup loads a user by id, as needed to resolve a session.
func (s *Service) Lookup(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	return u, nil
}

// LookupByEmail loads a user by e-mail, as needed by single sign-on.
func (s *Service) LookupByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	return u, nil
}
