package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/JonMunkholm/SentinelAdmin/internal/logging"
)

// AdminInput is the JSON body of an admin create.
type AdminInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"required,max=50"`
}

// Credentials is the JSON body of a login.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the issued token and the operator it belongs to.
type LoginResult struct {
	Token string    `json:"token"`
	User  AdminUser `json:"user"`
}

// CreateAdmin stores a new operator with a bcrypt password hash. Without a
// principal in ctx it only succeeds while no operator exists yet, so the
// first account can be created on a fresh install.
func (s *Service) CreateAdmin(ctx context.Context, in AdminInput) (*AdminUser, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.TrimSpace(in.Role)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	if _, ok := PrincipalFromContext(ctx); !ok {
		n, err := s.store.CountAdminUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("count admin users: %w", err)
		}
		if n > 0 {
			return nil, ErrUnauthenticated
		}
		logging.FromContext(ctx).Info("creating first admin user", "username", in.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.InsertAdminUser(ctx, in.Username, string(hash), in.Role)
	if err != nil {
		return nil, fmt.Errorf("insert admin user: %w", err)
	}

	s.recorder.Record(ctx, AuditEvent{
		ActionType: ActionAdminCreate,
		TargetType: TargetAdminUser,
		TargetID:   user.ID,
		Summary:    "Created admin user " + user.Username,
		Details:    map[string]any{"username": user.Username, "role": user.Role},
	})
	return user, nil
}

// ListAdmins returns every operator. Password hashes are not serialized.
func (s *Service) ListAdmins(ctx context.Context) ([]AdminUser, error) {
	users, err := s.store.ListAdminUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	if users == nil {
		users = make([]AdminUser, 0)
	}
	return users, nil
}

// CountAdmins returns the number of operators.
func (s *Service) CountAdmins(ctx context.Context) (int64, error) {
	n, err := s.store.CountAdminUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count admin users: %w", err)
	}
	return n, nil
}

// Login checks creds and issues a token. Unknown users and wrong passwords
// both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := validateStruct(s.validate, creds); err != nil {
		return nil, err
	}

	user, err := s.store.GetAdminUserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.recordLoginFailure(ctx, creds.Username)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		s.recordLoginFailure(ctx, creds.Username)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, AuditEvent{
		ActorID:       user.ID,
		ActorUsername: user.Username,
		ActorRole:     user.Role,
		ActionType:    ActionLogin,
		TargetType:    TargetAdminUser,
		TargetID:      user.ID,
		Summary:       "Login " + user.Username,
	})

	return &LoginResult{Token: token, User: *user}, nil
}

func (s *Service) recordLoginFailure(ctx context.Context, username string) {
	s.recorder.Record(ctx, AuditEvent{
		ActorUsername: username,
		ActionType:    ActionLoginFailed,
		TargetType:    TargetAdminUser,
		Summary:       "Failed login for " + username,
	})
}

// RefreshToken issues a new token for the principal in ctx.
func (s *Service) RefreshToken(ctx context.Context) (string, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return s.tokens.Issue(p.ID, p.Username, p.Role)
}
