package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"orgfees/internal/core"
	"orgfees/internal/log"
	"orgfees/internal/store"
)

// Session is the result of a successful login.
type Session struct {
	User      core.User
	Token     string
	ExpiresAt time.Time
}

// Service manages staff accounts and sessions.
type Service struct {
	users  store.UserStore
	issuer *Issuer
}

func NewService(users store.UserStore, issuer *Issuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// Login checks the credentials and issues an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			logger.InfoContext(ctx, "Login refused", log.FieldOperation, log.OpLogin, log.FieldReason, "unknown email")
			return Session{}, core.Invalid(core.ReasonInvalidCredentials)
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		logger.InfoContext(ctx, "Login refused", log.FieldOperation, log.OpLogin, log.FieldReason, "wrong password", log.FieldUserID, user.ID.Hex())
		return Session{}, core.Invalid(core.ReasonInvalidCredentials)
	}

	token, expires, err := s.issuer.Issue(user)
	if err != nil {
		return Session{}, err
	}
	logger.InfoContext(ctx, "Login succeeded", log.FieldOperation, log.OpLogin, log.FieldUserID, user.ID.Hex())
	return Session{User: user, Token: token, ExpiresAt: expires}, nil
}

// CreateUser registers a new account.
func (s *Service) CreateUser(ctx context.Context, email, password string, role core.Role) (core.User, error) {
	email = normalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return core.User{}, core.Invalid(core.ReasonInvalidEmail)
	}
	if !role.Valid() {
		return core.User{}, core.Invalid(core.ReasonInvalidRole)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, err
	}

	user := core.User{
		ID:           core.NewID(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return core.User{}, core.Conflict(core.ReasonUserExists)
		}
		return core.User{}, fmt.Errorf("save user: %w", err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentAuth).InfoContext(ctx, "User created",
		log.FieldOperation, log.OpCreate, log.FieldUserID, user.ID.Hex(), "role", string(role))
	return user, nil
}

// EnsureAdmin creates the bootstrap administrator unless the email is already
// registered. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if _, err := s.users.GetUserByEmail(ctx, normalizeEmail(email)); err == nil {
		return false, nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	if _, err := s.CreateUser(ctx, email, password, core.RoleAdmin); err != nil {
		if core.IsReason(err, core.ReasonUserExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Me returns the account behind actor.
func (s *Service) Me(ctx context.Context, actor core.Actor) (core.User, error) {
	id, err := core.ParseID(actor.UserID)
	if err != nil {
		return core.User{}, core.NotFound(core.ReasonInvalidCredentials)
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.NotFound(core.ReasonInvalidCredentials)
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// AccountUpdate changes the caller's own credentials. Empty Email or
// NewPassword leaves that field as it is. CurrentPassword is always required.
type AccountUpdate struct {
	Email           string
	CurrentPassword string
	NewPassword     string
}

// UpdateMe applies upd to the account behind actor and issues a fresh token
// carrying the new email.
func (s *Service) UpdateMe(ctx context.Context, actor core.Actor, upd AccountUpdate) (Session, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)

	user, err := s.Me(ctx, actor)
	if err != nil {
		return Session{}, err
	}
	if !CheckPassword(user.PasswordHash, upd.CurrentPassword) {
		logger.InfoContext(ctx, "Account update refused", log.FieldOperation, log.OpUpdate, log.FieldReason, "wrong password", log.FieldUserID, user.ID.Hex())
		return Session{}, core.Invalid(core.ReasonInvalidCredentials)
	}

	if strings.TrimSpace(upd.Email) != "" {
		email := normalizeEmail(upd.Email)
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			return Session{}, core.Invalid(core.ReasonInvalidEmail)
		}
		user.Email = email
	}
	if upd.NewPassword != "" {
		hash, err := HashPassword(upd.NewPassword)
		if err != nil {
			return Session{}, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicate):
			return Session{}, core.Conflict(core.ReasonUserExists)
		case errors.Is(err, core.ErrNotFound):
			return Session{}, core.NotFound(core.ReasonInvalidCredentials)
		}
		return Session{}, fmt.Errorf("update user: %w", err)
	}

	token, expires, err := s.issuer.Issue(user)
	if err != nil {
		return Session{}, err
	}
	logger.InfoContext(ctx, "Account updated", log.FieldOperation, log.OpUpdate, log.FieldUserID, user.ID.Hex(),
		"email_changed", user.Email != actor.Email, "password_changed", upd.NewPassword != "")
	return Session{User: user, Token: token, ExpiresAt: expires}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
