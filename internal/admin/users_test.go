package admin

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearup/storefront/internal/auth"
	"github.com/gearup/storefront/internal/database"
	"github.com/gearup/storefront/internal/models"
	"github.com/gearup/storefront/internal/store"
)

type fakeDirectory struct {
	users   map[string]*auth.DirectoryUser
	listErr error
	calls   []string
	nextUID string
}

func (d *fakeDirectory) ListUsers(ctx context.Context) ([]auth.DirectoryUser, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	var out []auth.DirectoryUser
	for _, u := range d.users {
		out = append(out, *u)
	}
	return out, nil
}

func (d *fakeDirectory) CreateUser(ctx context.Context, nu auth.NewUser) (*auth.DirectoryUser, error) {
	d.calls = append(d.calls, "create")
	u := &auth.DirectoryUser{UID: d.nextUID, Email: nu.Email, DisplayName: nu.DisplayName, Created: time.Now()}
	d.users[u.UID] = u
	cp := *u
	return &cp, nil
}

func (d *fakeDirectory) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	d.calls = append(d.calls, "name")
	d.users[uid].DisplayName = displayName
	return nil
}

func (d *fakeDirectory) SetAdmin(ctx context.Context, uid string, admin bool) error {
	d.calls = append(d.calls, "admin")
	d.users[uid].Admin = admin
	return nil
}

func (d *fakeDirectory) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	d.calls = append(d.calls, "disabled")
	d.users[uid].Disabled = disabled
	return nil
}

func (d *fakeDirectory) DeleteUser(ctx context.Context, uid string) error {
	d.calls = append(d.calls, "delete")
	delete(d.users, uid)
	return nil
}

type fakeUserRepo struct {
	users map[string]models.User
}

func (r *fakeUserRepo) EnsureUsers(ctx context.Context, users []models.User) (int, error) {
	n := 0
	for _, u := range users {
		if _, ok := r.users[u.ID]; !ok {
			r.users[u.ID] = u
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) UpsertUser(ctx context.Context, u models.User) (*models.User, error) {
	r.users[u.ID] = u
	return &u, nil
}

func (r *fakeUserRepo) ListUsers(ctx context.Context, page, pageSize int) (*store.OffsetPage, error) {
	items := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		items = append(items, u)
	}
	return &store.OffsetPage{Items: items, Page: page, PageSize: pageSize, Total: int64(len(items))}, nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, id, displayName string, role models.Role) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	u.DisplayName = displayName
	u.Role = role
	r.users[id] = u
	return &u, nil
}

func (r *fakeUserRepo) SetUserStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	u.Status = status
	r.users[id] = u
	return &u, nil
}

func (r *fakeUserRepo) DeleteUser(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) CountUsers(ctx context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) Stats(ctx context.Context) (*models.Stats, error) {
	return &models.Stats{TotalUsers: int64(len(r.users))}, nil
}

func setup() (*Users, *fakeDirectory, *fakeUserRepo) {
	dir := &fakeDirectory{users: map[string]*auth.DirectoryUser{
		"u1": {UID: "u1", Email: "ana@example.com", Created: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		"u2": {UID: "u2", Email: "boss@gearup.com", Disabled: true},
	}, nextUID: "u3"}
	repo := &fakeUserRepo{users: map[string]models.User{}}
	svc := NewUsers(dir, repo, auth.RoleResolver{AdminDomain: "gearup.com"}, log.New(io.Discard, "", 0))
	return svc, dir, repo
}

func TestSyncCreatesMissingRecords(t *testing.T) {
	svc, _, repo := setup()
	repo.users["u1"] = models.User{ID: "u1", DisplayName: "kept"}

	added, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, "kept", repo.users["u1"].DisplayName)

	u2 := repo.users["u2"]
	assert.Equal(t, models.RoleAdmin, u2.Role)
	assert.Equal(t, models.UserStatusInactive, u2.Status)
}

func TestSyncDirectoryFailure(t *testing.T) {
	svc, dir, _ := setup()
	dir.listErr = errors.New("quota exceeded")
	_, err := svc.List(context.Background(), 1, 20)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestListSyncsFirst(t *testing.T) {
	svc, _, _ := setup()
	page, err := svc.List(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestCreateAdminUser(t *testing.T) {
	svc, dir, repo := setup()
	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "new@example.com", Password: "secret1", DisplayName: "New", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, []string{"create", "admin"}, dir.calls)
	assert.Contains(t, repo.users, "u3")
}

func TestCreateUserValidation(t *testing.T) {
	svc, dir, _ := setup()
	cases := []CreateUserRequest{
		{Password: "secret1"},
		{Email: "not-an-email", Password: "secret1"},
		{Email: "a@example.com", Password: "123"},
		{Email: "a@example.com", Password: "secret1", Role: "Owner"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), req)
		assert.True(t, models.IsValidation(err), "%+v", req)
	}
	assert.Empty(t, dir.calls)
}

func TestUpdateUser(t *testing.T) {
	svc, dir, repo := setup()
	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	user, err := svc.Update(context.Background(), "u1", "Ana", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.DisplayName)
	assert.True(t, dir.users["u1"].Admin)
	assert.Equal(t, models.RoleAdmin, repo.users["u1"].Role)
}

func TestSetStatus(t *testing.T) {
	svc, dir, _ := setup()
	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	user, err := svc.SetStatus(context.Background(), "u1", models.UserStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusInactive, user.Status)
	assert.True(t, dir.users["u1"].Disabled)

	_, err = svc.SetStatus(context.Background(), "u1", "Banned")
	assert.True(t, models.IsValidation(err))
}

func TestDeleteAndCount(t *testing.T) {
	svc, dir, _ := setup()
	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "u1"))
	assert.NotContains(t, dir.users, "u1")

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
