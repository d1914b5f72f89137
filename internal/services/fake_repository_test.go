package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
)

// memRepository is an in-memory Repository with enough behavior for
// service tests: uniqueness enforcement, enrollment state, association
// bookkeeping. It is not safe for concurrent use.
type memRepository struct {
	users  *memUserRepo
	roles  *memRoleRepo
	grants *memGrantRepo

	schools  *memSchoolRepo
	teachers *memTeacherRepo
	students *memStudentRepo
	parents  *memParentRepo
}

func newMemRepository() *memRepository {
	m := &memRepository{
		users:    &memUserRepo{users: make(map[string]*models.User)},
		roles:    &memRoleRepo{roles: make(map[string]*models.Role)},
		grants:   &memGrantRepo{grants: make(map[string]*models.PermissionGrant)},
		schools:  &memSchoolRepo{schools: make(map[string]*models.School)},
		teachers: &memTeacherRepo{profiles: make(map[string]*models.TeacherProfile)},
		students: &memStudentRepo{profiles: make(map[string]*models.StudentProfile)},
		parents:  &memParentRepo{profiles: make(map[string]*models.ParentProfile)},
	}
	m.users.roles = m.roles
	m.users.grants = m.grants
	m.users.teachers = m.teachers
	m.users.students = m.students
	m.users.parents = m.parents
	return m
}

func (m *memRepository) User() repositories.UserRepository       { return m.users }
func (m *memRepository) Role() repositories.RoleRepository       { return m.roles }
func (m *memRepository) Grant() repositories.GrantRepository     { return m.grants }
func (m *memRepository) School() repositories.SchoolRepository   { return m.schools }
func (m *memRepository) Teacher() repositories.TeacherRepository { return m.teachers }
func (m *memRepository) Student() repositories.StudentRepository { return m.students }
func (m *memRepository) Parent() repositories.ParentRepository   { return m.parents }
func (m *memRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *memRepository) Ping(ctx context.Context) error { return nil }
func (m *memRepository) Close() error                   { return nil }

// ===== users =====

type memUserRepo struct {
	users      map[string]*models.User
	roles      *memRoleRepo
	grants     *memGrantRepo
	teachers   *memTeacherRepo
	students   *memStudentRepo
	parents    *memParentRepo
	userRoles  map[string][]string
	userGrants map[string][]string
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetWithSubIdentity(ctx context.Context, id string) (*models.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p, err := r.teachers.GetByUserID(ctx, id); err == nil {
		u.TeacherProfile = p
	}
	if p, err := r.students.GetByUserID(ctx, id); err == nil {
		enrollments, _ := r.students.ListEnrollments(ctx, p.ID)
		p.Enrollments = enrollments
		u.StudentProfile = p
	}
	if p, err := r.parents.GetByUserID(ctx, id); err == nil {
		enrollments, _ := r.parents.ListEnrollments(ctx, p.ID)
		p.Enrollments = enrollments
		u.ParentProfile = p
	}
	return u, nil
}

func (r *memUserRepo) GetWithAccess(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u.Roles = nil
	for _, roleID := range r.userRoles[id] {
		if role, ok := r.roles.roles[roleID]; ok {
			u.Roles = append(u.Roles, role)
		}
	}
	u.Grants = nil
	for _, grantID := range r.userGrants[id] {
		if grant, ok := r.grants.grants[grantID]; ok {
			u.Grants = append(u.Grants, grant)
		}
	}
	return u, nil
}

func (r *memUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, u := range r.users {
		if filters.Query == "" || strings.Contains(u.Username, filters.Query) {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *memUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *memUserRepo) AddRole(ctx context.Context, userID, roleID string) error {
	if r.userRoles == nil {
		r.userRoles = make(map[string][]string)
	}
	for _, id := range r.userRoles[userID] {
		if id == roleID {
			return nil
		}
	}
	r.userRoles[userID] = append(r.userRoles[userID], roleID)
	return nil
}

func (r *memUserRepo) RemoveRole(ctx context.Context, userID, roleID string) error {
	out := r.userRoles[userID][:0]
	for _, id := range r.userRoles[userID] {
		if id != roleID {
			out = append(out, id)
		}
	}
	r.userRoles[userID] = out
	return nil
}

func (r *memUserRepo) AddGrant(ctx context.Context, userID, grantID string) error {
	if r.userGrants == nil {
		r.userGrants = make(map[string][]string)
	}
	for _, id := range r.userGrants[userID] {
		if id == grantID {
			return nil
		}
	}
	r.userGrants[userID] = append(r.userGrants[userID], grantID)
	return nil
}

func (r *memUserRepo) RemoveGrant(ctx context.Context, userID, grantID string) error {
	out := r.userGrants[userID][:0]
	for _, id := range r.userGrants[userID] {
		if id != grantID {
			out = append(out, id)
		}
	}
	r.userGrants[userID] = out
	return nil
}

// ===== roles =====

type memRoleRepo struct {
	roles      map[string]*models.Role
	roleGrants map[string][]string
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *memRoleRepo) Create(ctx context.Context, role *models.Role) error {
	for _, existing := range r.roles {
		if existing.Name == role.Name && sameScope(existing.SchoolID, role.SchoolID) {
			return gorm.ErrDuplicatedKey
		}
	}
	r.roles[role.ID] = role
	return nil
}

func (r *memRoleRepo) GetByID(ctx context.Context, id string) (*models.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (r *memRoleRepo) GetByName(ctx context.Context, name string, schoolID *string) (*models.Role, error) {
	for _, role := range r.roles {
		if role.Name == name && sameScope(role.SchoolID, schoolID) {
			return role, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRoleRepo) List(ctx context.Context, filters repositories.RoleFilters) ([]*models.Role, int64, error) {
	var out []*models.Role
	for _, role := range r.roles {
		if filters.Type != nil && role.Type != *filters.Type {
			continue
		}
		if filters.SchoolID != nil && !sameScope(role.SchoolID, filters.SchoolID) {
			continue
		}
		out = append(out, role)
	}
	return out, int64(len(out)), nil
}

func (r *memRoleRepo) ListByType(ctx context.Context, roleType models.RoleType, schoolID *string) ([]*models.Role, error) {
	var out []*models.Role
	for _, role := range r.roles {
		if role.Type == roleType && sameScope(role.SchoolID, schoolID) {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *memRoleRepo) Delete(ctx context.Context, id string) error {
	delete(r.roles, id)
	delete(r.roleGrants, id)
	return nil
}

func (r *memRoleRepo) AttachGrant(ctx context.Context, roleID, grantID string) error {
	if r.roleGrants == nil {
		r.roleGrants = make(map[string][]string)
	}
	for _, id := range r.roleGrants[roleID] {
		if id == grantID {
			return nil
		}
	}
	r.roleGrants[roleID] = append(r.roleGrants[roleID], grantID)
	return nil
}

func (r *memRoleRepo) DetachGrant(ctx context.Context, roleID, grantID string) error {
	out := r.roleGrants[roleID][:0]
	for _, id := range r.roleGrants[roleID] {
		if id != grantID {
			out = append(out, id)
		}
	}
	r.roleGrants[roleID] = out
	return nil
}

func (r *memRoleRepo) TypesOfUser(ctx context.Context, userID string) ([]models.RoleType, error) {
	return nil, nil
}

// ===== grants =====

type memGrantRepo struct {
	grants map[string]*models.PermissionGrant
}

func (r *memGrantRepo) Create(ctx context.Context, grant *models.PermissionGrant) error {
	r.grants[grant.ID] = grant
	return nil
}

func (r *memGrantRepo) GetByID(ctx context.Context, id string) (*models.PermissionGrant, error) {
	grant, ok := r.grants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return grant, nil
}

func (r *memGrantRepo) UpdateDocument(ctx context.Context, id string, document []byte) error {
	grant, ok := r.grants[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	grant.Document = document
	return nil
}

func (r *memGrantRepo) Delete(ctx context.Context, id string) error {
	delete(r.grants, id)
	return nil
}

// ===== schools =====

type memSchoolRepo struct {
	schools map[string]*models.School
}

func (r *memSchoolRepo) Create(ctx context.Context, school *models.School) error {
	r.schools[school.ID] = school
	return nil
}

func (r *memSchoolRepo) GetByID(ctx context.Context, id string) (*models.School, error) {
	school, ok := r.schools[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return school, nil
}

func (r *memSchoolRepo) List(ctx context.Context, limit, offset int) ([]*models.School, int64, error) {
	var out []*models.School
	for _, school := range r.schools {
		out = append(out, school)
	}
	return out, int64(len(out)), nil
}

func (r *memSchoolRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := r.schools[id]
	return ok, nil
}

// ===== teacher profiles =====

type memTeacherRepo struct {
	profiles map[string]*models.TeacherProfile
}

func (r *memTeacherRepo) Create(ctx context.Context, profile *models.TeacherProfile) error {
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *memTeacherRepo) GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *memTeacherRepo) ListBySchool(ctx context.Context, schoolID string, limit, offset int) ([]*models.TeacherProfile, int64, error) {
	var out []*models.TeacherProfile
	for _, p := range r.profiles {
		if p.SchoolID == schoolID {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

// ===== student profiles and enrollments =====

type memStudentRepo struct {
	profiles    map[string]*models.StudentProfile
	enrollments []*models.StudentEnrollment
	nextID      uint
}

func (r *memStudentRepo) Create(ctx context.Context, profile *models.StudentProfile) error {
	if profile.ID == "" {
		profile.ID = "student-" + profile.UserID
	}
	r.profiles[profile.ID] = profile
	return nil
}

func (r *memStudentRepo) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *memStudentRepo) GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	for _, p := range r.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memStudentRepo) Enroll(ctx context.Context, enrollment *models.StudentEnrollment) error {
	for _, e := range r.enrollments {
		if e.StudentID == enrollment.StudentID && e.SchoolID == enrollment.SchoolID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	enrollment.ID = r.nextID
	r.enrollments = append(r.enrollments, enrollment)
	return nil
}

func (r *memStudentRepo) GetEnrollment(ctx context.Context, studentID, schoolID string) (*models.StudentEnrollment, error) {
	for _, e := range r.enrollments {
		if e.StudentID == studentID && e.SchoolID == schoolID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memStudentRepo) ListEnrollments(ctx context.Context, studentID string) ([]models.StudentEnrollment, error) {
	var out []models.StudentEnrollment
	for _, e := range r.enrollments {
		if e.StudentID == studentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memStudentRepo) ActiveEnrollments(ctx context.Context, studentID string) ([]models.StudentEnrollment, error) {
	var out []models.StudentEnrollment
	for _, e := range r.enrollments {
		if e.StudentID == studentID && e.Status == models.EnrollmentActive {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memStudentRepo) UpdateEnrollmentStatus(ctx context.Context, enrollmentID uint, status models.EnrollmentStatus) error {
	for _, e := range r.enrollments {
		if e.ID == enrollmentID {
			e.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ===== parent profiles and enrollments =====

type memParentRepo struct {
	profiles    map[string]*models.ParentProfile
	enrollments []*models.ParentEnrollment
	nextID      uint
}

func (r *memParentRepo) Create(ctx context.Context, profile *models.ParentProfile) error {
	if profile.ID == "" {
		profile.ID = "parent-" + profile.UserID
	}
	r.profiles[profile.ID] = profile
	return nil
}

func (r *memParentRepo) GetByID(ctx context.Context, id string) (*models.ParentProfile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *memParentRepo) GetByUserID(ctx context.Context, userID string) (*models.ParentProfile, error) {
	for _, p := range r.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memParentRepo) Enroll(ctx context.Context, enrollment *models.ParentEnrollment) error {
	for _, e := range r.enrollments {
		if e.ParentID == enrollment.ParentID && e.SchoolID == enrollment.SchoolID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	enrollment.ID = r.nextID
	r.enrollments = append(r.enrollments, enrollment)
	return nil
}

func (r *memParentRepo) GetEnrollment(ctx context.Context, parentID, schoolID string) (*models.ParentEnrollment, error) {
	for _, e := range r.enrollments {
		if e.ParentID == parentID && e.SchoolID == schoolID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memParentRepo) ListEnrollments(ctx context.Context, parentID string) ([]models.ParentEnrollment, error) {
	var out []models.ParentEnrollment
	for _, e := range r.enrollments {
		if e.ParentID == parentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memParentRepo) ActiveEnrollments(ctx context.Context, parentID string) ([]models.ParentEnrollment, error) {
	var out []models.ParentEnrollment
	for _, e := range r.enrollments {
		if e.ParentID == parentID && e.Status == models.EnrollmentActive {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memParentRepo) UpdateEnrollmentStatus(ctx context.Context, enrollmentID uint, status models.EnrollmentStatus) error {
	for _, e := range r.enrollments {
		if e.ID == enrollmentID {
			e.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
