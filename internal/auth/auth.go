package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gearup/storefront/internal/models"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid token")
	ErrForbidden       = errors.New("forbidden")
)

const bearerPrefix = "Bearer "

// Identity is a verified caller. Role is resolved once, at verification.
type Identity struct {
	UID   string      `json:"uid"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

// RequireAdmin returns ErrUnauthenticated for a nil identity and ErrForbidden
// for anyone who is not an admin.
func RequireAdmin(id *Identity) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if !id.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// BearerToken extracts the credential from an Authorization header value.
// Anything that does not start with "Bearer " is rejected.
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrUnauthenticated
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}

// RoleResolver maps identity claims to a store role. A user is an admin when
// the admin claim is true or the email belongs to AdminDomain.
type RoleResolver struct {
	AdminDomain string
}

func (r RoleResolver) Resolve(claims map[string]interface{}, email string) models.Role {
	if admin, ok := claims["admin"].(bool); ok && admin {
		return models.RoleAdmin
	}
	domain := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(r.AdminDomain)), "@")
	if domain != "" && strings.HasSuffix(strings.ToLower(email), "@"+domain) {
		return models.RoleAdmin
	}
	return models.RoleUser
}

type Verifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
	CreateSession(ctx context.Context, idToken string, ttl time.Duration) (string, error)
	VerifySession(ctx context.Context, cookie string) (*Identity, error)
}

// DirectoryUser is an account as the identity provider knows it.
type DirectoryUser struct {
	UID         string
	Email       string
	DisplayName string
	Admin       bool
	Disabled    bool
	Created     time.Time
}

type NewUser struct {
	Email       string
	Password    string
	DisplayName string
}

// Directory manages identity provider accounts for the back office.
type Directory interface {
	ListUsers(ctx context.Context) ([]DirectoryUser, error)
	CreateUser(ctx context.Context, u NewUser) (*DirectoryUser, error)
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	SetAdmin(ctx context.Context, uid string, admin bool) error
	SetDisabled(ctx context.Context, uid string, disabled bool) error
	DeleteUser(ctx context.Context, uid string) error
}

// RoleOf returns the store role for a directory account.
func (r RoleResolver) RoleOf(u DirectoryUser) models.Role {
	return r.Resolve(map[string]interface{}{"admin": u.Admin}, u.Email)
}
