package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/schoolsuite/school-service/internal/authz"
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/validator"
)

// plainHasher keeps registration tests fast and deterministic.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Compare(digest, password string) error {
	if digest != "plain:"+password {
		return fmt.Errorf("password mismatch")
	}
	return nil
}

func newUserService(repo *memRepository) UserService {
	logger := testLogger()
	schema := permissions.DefaultSchema()
	engine := authz.NewEngine(schema, repo, logger)
	resolver := authz.NewTenantResolver(repo, logger)
	return NewUserService(repo, nil, logger, validator.New(), plainHasher{}, engine, resolver, nil)
}

func TestUserServiceRegister(t *testing.T) {
	repo := newMemRepository()
	service := newUserService(repo)
	ctx := context.Background()

	resp, err := service.Register(ctx, &RegisterUserRequest{
		Email:    "ana@example.com",
		Username: "ana",
		FullName: "Ana Petrov",
		Password: "s3cret-pass",
		Kind:     models.SubIdentityStudent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SubIdentityKind != models.SubIdentityStudent {
		t.Errorf("expected student kind, got %s", resp.SubIdentityKind)
	}
	if _, err := repo.students.GetByUserID(ctx, resp.ID); err != nil {
		t.Errorf("student profile was not created: %v", err)
	}

	// Email uniqueness
	_, err = service.Register(ctx, &RegisterUserRequest{
		Email:    "ana@example.com",
		Username: "ana2",
		FullName: "Ana Petrov",
		Password: "s3cret-pass",
		Kind:     models.SubIdentityStudent,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserServiceRegisterTeacherRequiresSchool(t *testing.T) {
	service := newUserService(newMemRepository())

	_, err := service.Register(context.Background(), &RegisterUserRequest{
		Email:    "teo@example.com",
		Username: "teo",
		FullName: "Teo Marin",
		Password: "s3cret-pass",
		Kind:     models.SubIdentityTeacher,
	})
	if !errors.Is(err, ErrSchoolRequired) {
		t.Fatalf("expected ErrSchoolRequired, got %v", err)
	}
}

func TestUserServiceAuthenticate(t *testing.T) {
	repo := newMemRepository()
	service := newUserService(repo)
	ctx := context.Background()

	if _, err := service.Register(ctx, &RegisterUserRequest{
		Email:    "ana@example.com",
		Username: "ana",
		FullName: "Ana Petrov",
		Password: "s3cret-pass",
		Kind:     models.SubIdentityStudent,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := service.Authenticate(ctx, "ana@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("expected successful authentication, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUserServiceAccessProfile(t *testing.T) {
	repo := newMemRepository()
	service := newUserService(repo)
	ctx := context.Background()

	registered, err := service.Register(ctx, &RegisterUserRequest{
		Email:    "ana@example.com",
		Username: "ana",
		FullName: "Ana Petrov",
		Password: "s3cret-pass",
		Kind:     models.SubIdentityStudent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	profile, err := service.AccessProfile(ctx, registered.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Configured {
		t.Error("freshly registered identity should have no permissions configured")
	}
	if profile.SchoolID != nil {
		t.Error("identity without enrollments should have no school")
	}
	if profile.SubIdentityKind != models.SubIdentityStudent {
		t.Errorf("expected student kind, got %s", profile.SubIdentityKind)
	}
}
