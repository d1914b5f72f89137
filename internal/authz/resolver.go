package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
)

// TenantResolver maps an identity to exactly one school id, or fails
// explicitly. Resolution is recomputed on every call: enrollment activity
// can change between requests and must never be served stale.
type TenantResolver struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewTenantResolver(repo repositories.Repository, logger *slog.Logger) *TenantResolver {
	return &TenantResolver{repo: repo, logger: logger}
}

// ResolveTenant loads the identity and resolves its active school.
func (r *TenantResolver) ResolveTenant(ctx context.Context, userID string) (string, error) {
	user, err := r.repo.User().GetWithSubIdentity(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", fmt.Errorf("identity %s: %w", userID, err)
		}
		return "", fmt.Errorf("failed to load identity: %w", err)
	}
	return r.ResolveTenantOf(user)
}

// ResolveTenantOf resolves the tenant of an already-loaded identity.
// Exactly one sub-identity branch applies.
func (r *TenantResolver) ResolveTenantOf(user *models.User) (string, error) {
	sub := user.SubIdentity()

	switch sub.Kind {
	case models.SubIdentityOwner:
		return sub.OwnedSchoolID, nil

	case models.SubIdentityTeacher:
		return sub.Teacher.SchoolID, nil

	case models.SubIdentityStudent:
		return r.activeSchool(user.ID, studentSchools(sub.Student.Enrollments))

	case models.SubIdentityParent:
		return r.activeSchool(user.ID, parentSchools(sub.Parent.Enrollments))

	default:
		return "", ErrNoTenant
	}
}

func (r *TenantResolver) activeSchool(userID string, activeSchoolIDs []string) (string, error) {
	switch len(activeSchoolIDs) {
	case 0:
		return "", ErrNoActiveTenant
	case 1:
		return activeSchoolIDs[0], nil
	default:
		r.logger.Error("multiple active tenant associations",
			"user_id", userID, "school_ids", activeSchoolIDs)
		return "", ErrAmbiguousTenant
	}
}

func studentSchools(enrollments []models.StudentEnrollment) []string {
	var ids []string
	for _, e := range enrollments {
		if e.Status == models.EnrollmentActive {
			ids = append(ids, e.SchoolID)
		}
	}
	return ids
}

func parentSchools(enrollments []models.ParentEnrollment) []string {
	var ids []string
	for _, e := range enrollments {
		if e.Status == models.EnrollmentActive {
			ids = append(ids, e.SchoolID)
		}
	}
	return ids
}
