package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/gearup/storefront/internal/auth"
	"github.com/gearup/storefront/internal/models"
	"github.com/gearup/storefront/internal/store"
)

type UserRepository interface {
	EnsureUsers(ctx context.Context, users []models.User) (int, error)
	UpsertUser(ctx context.Context, u models.User) (*models.User, error)
	ListUsers(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
	UpdateUser(ctx context.Context, id, displayName string, role models.Role) (*models.User, error)
	SetUserStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type SQLRepository struct {
	DB *sql.DB
}

func (r SQLRepository) EnsureUsers(ctx context.Context, users []models.User) (int, error) {
	return store.EnsureUsers(ctx, r.DB, users)
}

func (r SQLRepository) UpsertUser(ctx context.Context, u models.User) (*models.User, error) {
	return store.UpsertUser(ctx, r.DB, u)
}

func (r SQLRepository) ListUsers(ctx context.Context, page, pageSize int) (*store.OffsetPage, error) {
	return store.ListUsers(ctx, r.DB, page, pageSize)
}

func (r SQLRepository) UpdateUser(ctx context.Context, id, displayName string, role models.Role) (*models.User, error) {
	return store.UpdateUser(ctx, r.DB, id, displayName, role)
}

func (r SQLRepository) SetUserStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error) {
	return store.SetUserStatus(ctx, r.DB, id, status)
}

func (r SQLRepository) DeleteUser(ctx context.Context, id string) error {
	return store.DeleteUser(ctx, r.DB, id)
}

func (r SQLRepository) CountUsers(ctx context.Context) (int64, error) {
	return store.CountUsers(ctx, r.DB)
}

func (r SQLRepository) Stats(ctx context.Context) (*models.Stats, error) {
	return store.GetStats(ctx, r.DB)
}

// Users keeps identity provider accounts and store records in step.
// The identity provider is changed first; the store record follows.
type Users struct {
	dir    auth.Directory
	repo   UserRepository
	roles  auth.RoleResolver
	logger *log.Logger
}

func NewUsers(dir auth.Directory, repo UserRepository, roles auth.RoleResolver, logger *log.Logger) *Users {
	return &Users{dir: dir, repo: repo, roles: roles, logger: logger}
}

type CreateUserRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	DisplayName string      `json:"displayName"`
	Role        models.Role `json:"role"`
}

func (r CreateUserRequest) Validate() error {
	var fields []string
	if strings.TrimSpace(r.Email) == "" {
		fields = append(fields, "email")
	}
	if r.Password == "" {
		fields = append(fields, "password")
	}
	if len(fields) > 0 {
		return models.NewValidationError("required fields missing", fields...)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return models.NewValidationError("invalid email address", "email")
	}
	if len(r.Password) < 6 {
		return models.NewValidationError("password must be at least 6 characters", "password")
	}
	return validRole(r.Role)
}

func validRole(role models.Role) error {
	switch role {
	case "", models.RoleUser, models.RoleAdmin:
		return nil
	}
	return models.NewValidationError("unknown role", "role")
}

func (s *Users) record(u auth.DirectoryUser) models.User {
	status := models.UserStatusActive
	if u.Disabled {
		status = models.UserStatusInactive
	}
	return models.User{
		ID:          u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        s.roles.RoleOf(u),
		Status:      status,
		Joined:      u.Created.UTC(),
	}
}

// Sync creates a store record for every identity account that lacks one.
func (s *Users) Sync(ctx context.Context) (int, error) {
	accounts, err := s.dir.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list identity users: %w", err)
	}

	records := make([]models.User, 0, len(accounts))
	for _, a := range accounts {
		records = append(records, s.record(a))
	}

	added, err := s.repo.EnsureUsers(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("sync users: %w", err)
	}
	if added > 0 {
		s.logger.Printf("synced %d new users from identity provider", added)
	}
	return added, nil
}

func (s *Users) List(ctx context.Context, page, pageSize int) (*store.OffsetPage, error) {
	if _, err := s.Sync(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx, page, pageSize)
}

func (s *Users) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.dir.CreateUser(ctx, auth.NewUser{
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("create identity user: %w", err)
	}

	if req.Role == models.RoleAdmin {
		if err := s.dir.SetAdmin(ctx, account.UID, true); err != nil {
			return nil, fmt.Errorf("grant admin to %s: %w", account.UID, err)
		}
		account.Admin = true
	}

	user, err := s.repo.UpsertUser(ctx, s.record(*account))
	if err != nil {
		return nil, err
	}
	s.logger.Printf("user %s created with role %s", user.ID, user.Role)
	return user, nil
}

func (s *Users) Update(ctx context.Context, id, displayName string, role models.Role) (*models.User, error) {
	if role == "" {
		return nil, models.NewValidationError("required fields missing", "role")
	}
	if err := validRole(role); err != nil {
		return nil, err
	}

	if err := s.dir.UpdateDisplayName(ctx, id, displayName); err != nil {
		return nil, fmt.Errorf("update identity user %s: %w", id, err)
	}
	if err := s.dir.SetAdmin(ctx, id, role == models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("set admin claim for %s: %w", id, err)
	}
	return s.repo.UpdateUser(ctx, id, displayName, role)
}

func (s *Users) SetStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error) {
	if status != models.UserStatusActive && status != models.UserStatusInactive {
		return nil, models.NewValidationError("unknown user status", "status")
	}
	if err := s.dir.SetDisabled(ctx, id, status == models.UserStatusInactive); err != nil {
		return nil, fmt.Errorf("set identity user %s status: %w", id, err)
	}
	return s.repo.SetUserStatus(ctx, id, status)
}

func (s *Users) Delete(ctx context.Context, id string) error {
	if err := s.dir.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete identity user %s: %w", id, err)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Printf("user %s deleted", id)
	return nil
}

func (s *Users) Count(ctx context.Context) (int64, error) {
	return s.repo.CountUsers(ctx)
}

func (s *Users) Stats(ctx context.Context) (*models.Stats, error) {
	return s.repo.Stats(ctx)
}
