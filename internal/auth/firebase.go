package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gearup/storefront/internal/config"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Firebase verifies credentials and manages accounts with Firebase Auth.
type Firebase struct {
	client *fbauth.Client
	roles  RoleResolver
}

func NewFirebase(ctx context.Context, cfg config.IdentityConfig, roles RoleResolver) (*Firebase, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	return &Firebase{client: client, roles: roles}, nil
}

func (f *Firebase) identity(token *fbauth.Token) *Identity {
	email, _ := token.Claims["email"].(string)
	return &Identity{
		UID:   token.UID,
		Email: email,
		Role:  f.roles.Resolve(token.Claims, email),
	}
}

func (f *Firebase) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return f.identity(token), nil
}

func (f *Firebase) CreateSession(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	cookie, err := f.client.SessionCookie(ctx, idToken, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return cookie, nil
}

func (f *Firebase) VerifySession(ctx context.Context, cookie string) (*Identity, error) {
	token, err := f.client.VerifySessionCookieAndCheckRevoked(ctx, cookie)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return f.identity(token), nil
}

func directoryUser(rec *fbauth.UserRecord) DirectoryUser {
	u := DirectoryUser{
		UID:         rec.UID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		Disabled:    rec.Disabled,
	}
	if admin, ok := rec.CustomClaims["admin"].(bool); ok {
		u.Admin = admin
	}
	if rec.UserMetadata != nil && rec.UserMetadata.CreationTimestamp > 0 {
		u.Created = time.UnixMilli(rec.UserMetadata.CreationTimestamp).UTC()
	}
	return u
}

func (f *Firebase) ListUsers(ctx context.Context) ([]DirectoryUser, error) {
	var users []DirectoryUser
	it := f.client.Users(ctx, "")
	for {
		rec, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list identity users: %w", err)
		}
		users = append(users, directoryUser(rec.UserRecord))
	}
	return users, nil
}

func (f *Firebase) CreateUser(ctx context.Context, nu NewUser) (*DirectoryUser, error) {
	params := (&fbauth.UserToCreate{}).Email(nu.Email).DisplayName(nu.DisplayName)
	if nu.Password != "" {
		params = params.Password(nu.Password)
	}
	rec, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create identity user: %w", err)
	}
	u := directoryUser(rec)
	return &u, nil
}

func (f *Firebase) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	if _, err := f.client.UpdateUser(ctx, uid, (&fbauth.UserToUpdate{}).DisplayName(displayName)); err != nil {
		return fmt.Errorf("update identity user: %w", err)
	}
	return nil
}

func (f *Firebase) SetAdmin(ctx context.Context, uid string, admin bool) error {
	if err := f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{"admin": admin}); err != nil {
		return fmt.Errorf("set admin claim: %w", err)
	}
	return nil
}

func (f *Firebase) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	if _, err := f.client.UpdateUser(ctx, uid, (&fbauth.UserToUpdate{}).Disabled(disabled)); err != nil {
		return fmt.Errorf("set identity user disabled: %w", err)
	}
	return nil
}

func (f *Firebase) DeleteUser(ctx context.Context, uid string) error {
	if err := f.client.DeleteUser(ctx, uid); err != nil && !fbauth.IsUserNotFound(err) {
		return fmt.Errorf("delete identity user: %w", err)
	}
	return nil
}
