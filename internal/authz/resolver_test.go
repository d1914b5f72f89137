package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func TestResolveTenant(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		wantSchool string
		wantErr    error
	}{
		{
			name: "owner resolves to owned school",
			user: &models.User{
				ID:            "owner-1",
				OwnedSchoolID: strPtr("school-a"),
			},
			wantSchool: "school-a",
		},
		{
			name: "teacher resolves to employing school",
			user: &models.User{
				ID:             "teacher-1",
				TeacherProfile: &models.TeacherProfile{UserID: "teacher-1", SchoolID: "school-b"},
			},
			wantSchool: "school-b",
		},
		{
			name: "student with one active enrollment",
			user: &models.User{
				ID: "student-1",
				StudentProfile: &models.StudentProfile{
					UserID: "student-1",
					Enrollments: []models.StudentEnrollment{
						{SchoolID: "school-a", Status: models.EnrollmentInactive},
						{SchoolID: "school-b", Status: models.EnrollmentActive},
					},
				},
			},
			wantSchool: "school-b",
		},
		{
			name: "student with only inactive enrollments",
			user: &models.User{
				ID: "student-2",
				StudentProfile: &models.StudentProfile{
					UserID: "student-2",
					Enrollments: []models.StudentEnrollment{
						{SchoolID: "school-a", Status: models.EnrollmentInactive},
					},
				},
			},
			wantErr: ErrNoActiveTenant,
		},
		{
			name: "student with no enrollments at all",
			user: &models.User{
				ID:             "student-3",
				StudentProfile: &models.StudentProfile{UserID: "student-3"},
			},
			wantErr: ErrNoActiveTenant,
		},
		{
			name: "student with two active enrollments is ambiguous",
			user: &models.User{
				ID: "student-4",
				StudentProfile: &models.StudentProfile{
					UserID: "student-4",
					Enrollments: []models.StudentEnrollment{
						{SchoolID: "school-a", Status: models.EnrollmentActive},
						{SchoolID: "school-b", Status: models.EnrollmentActive},
					},
				},
			},
			wantErr: ErrAmbiguousTenant,
		},
		{
			name: "parent with one active enrollment",
			user: &models.User{
				ID: "parent-1",
				ParentProfile: &models.ParentProfile{
					UserID: "parent-1",
					Enrollments: []models.ParentEnrollment{
						{SchoolID: "school-c", Status: models.EnrollmentActive},
					},
				},
			},
			wantSchool: "school-c",
		},
		{
			name:    "identity with no sub-identity",
			user:    &models.User{ID: "bare-1"},
			wantErr: ErrNoTenant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			repo.users.users[tt.user.ID] = tt.user
			resolver := NewTenantResolver(repo, testLogger())

			schoolID, err := resolver.ResolveTenant(context.Background(), tt.user.ID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if schoolID != tt.wantSchool {
				t.Errorf("expected school %q, got %q", tt.wantSchool, schoolID)
			}
		})
	}
}

func TestResolveTenantUnknownUser(t *testing.T) {
	resolver := NewTenantResolver(newFakeRepository(), testLogger())

	_, err := resolver.ResolveTenant(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error for an unknown identity")
	}
	if !repositories.IsNotFoundError(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

// Deactivating the only active enrollment must take effect on the very
// next resolution; nothing may be cached between calls.
func TestResolveTenantSeesDeactivation(t *testing.T) {
	user := &models.User{
		ID: "student-1",
		StudentProfile: &models.StudentProfile{
			UserID: "student-1",
			Enrollments: []models.StudentEnrollment{
				{SchoolID: "school-a", Status: models.EnrollmentActive},
			},
		},
	}
	repo := newFakeRepository()
	repo.users.users[user.ID] = user
	resolver := NewTenantResolver(repo, testLogger())

	schoolID, err := resolver.ResolveTenant(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schoolID != "school-a" {
		t.Fatalf("expected school-a, got %q", schoolID)
	}

	user.StudentProfile.Enrollments[0].Status = models.EnrollmentInactive

	if _, err := resolver.ResolveTenant(context.Background(), user.ID); !errors.Is(err, ErrNoActiveTenant) {
		t.Errorf("expected ErrNoActiveTenant after deactivation, got %v", err)
	}
}
