package authz

import (
	"context"

	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
)

// fakeRepository is an in-memory Repository for engine and resolver tests.
// Only the methods the authz package touches carry behavior.
type fakeRepository struct {
	users *fakeUserRepo
	roles *fakeRoleRepo
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users: &fakeUserRepo{users: make(map[string]*models.User)},
		roles: &fakeRoleRepo{typesByUser: make(map[string][]models.RoleType)},
	}
}

func (f *fakeRepository) User() repositories.UserRepository       { return f.users }
func (f *fakeRepository) Role() repositories.RoleRepository       { return f.roles }
func (f *fakeRepository) Grant() repositories.GrantRepository     { return nil }
func (f *fakeRepository) School() repositories.SchoolRepository   { return nil }
func (f *fakeRepository) Teacher() repositories.TeacherRepository { return nil }
func (f *fakeRepository) Student() repositories.StudentRepository { return nil }
func (f *fakeRepository) Parent() repositories.ParentRepository   { return nil }
func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}
func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

type fakeUserRepo struct {
	users map[string]*models.User
}

func (r *fakeUserRepo) get(id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(id)
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetWithSubIdentity(ctx context.Context, id string) (*models.User, error) {
	return r.get(id)
}

func (r *fakeUserRepo) GetWithAccess(ctx context.Context, id string) (*models.User, error) {
	return r.get(id)
}

func (r *fakeUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, nil
}

func (r *fakeUserRepo) AddRole(ctx context.Context, userID, roleID string) error    { return nil }
func (r *fakeUserRepo) RemoveRole(ctx context.Context, userID, roleID string) error { return nil }
func (r *fakeUserRepo) AddGrant(ctx context.Context, userID, grantID string) error  { return nil }
func (r *fakeUserRepo) RemoveGrant(ctx context.Context, userID, grantID string) error {
	return nil
}

type fakeRoleRepo struct {
	typesByUser map[string][]models.RoleType
}

func (r *fakeRoleRepo) Create(ctx context.Context, role *models.Role) error { return nil }
func (r *fakeRoleRepo) GetByID(ctx context.Context, id string) (*models.Role, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeRoleRepo) GetByName(ctx context.Context, name string, schoolID *string) (*models.Role, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeRoleRepo) List(ctx context.Context, filters repositories.RoleFilters) ([]*models.Role, int64, error) {
	return nil, 0, nil
}
func (r *fakeRoleRepo) ListByType(ctx context.Context, roleType models.RoleType, schoolID *string) ([]*models.Role, error) {
	return nil, nil
}
func (r *fakeRoleRepo) Delete(ctx context.Context, id string) error                  { return nil }
func (r *fakeRoleRepo) AttachGrant(ctx context.Context, roleID, grantID string) error { return nil }
func (r *fakeRoleRepo) DetachGrant(ctx context.Context, roleID, grantID string) error { return nil }
func (r *fakeRoleRepo) TypesOfUser(ctx context.Context, userID string) ([]models.RoleType, error) {
	return r.typesByUser[userID], nil
}
