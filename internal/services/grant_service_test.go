package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/schoolsuite/school-service/internal/events"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGrantService(repo *memRepository, publisher events.EventPublisher) GrantService {
	return NewGrantService(repo, nil, testLogger(), validator.New(), permissions.DefaultSchema(), publisher)
}

func TestGrantServiceCreate(t *testing.T) {
	repo := newMemRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	service := newGrantService(repo, publisher)
	ctx := context.Background()

	resp, err := service.Create(ctx, &CreateGrantRequest{
		Document: permissions.Partial{
			permissions.CategoryAttendance: {permissions.CapManageAttendance: true},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.Decoded.Granted(permissions.CategoryAttendance, permissions.CapManageAttendance) {
		t.Error("explicit grant lost during normalization")
	}
	// Omitted capabilities normalize to explicit false entries.
	if resp.Decoded.Granted(permissions.CategoryAttendance, permissions.CapViewAttendance) {
		t.Error("omitted capability should default to false")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventGrantCreated {
		t.Errorf("expected one grant.created event, got %v", published)
	}
}

func TestGrantServiceCreateRejectsUnknownKeys(t *testing.T) {
	service := newGrantService(newMemRepository(), nil)

	_, err := service.Create(context.Background(), &CreateGrantRequest{
		Document: permissions.Partial{
			"made_up_category": {permissions.CapView: true},
		},
	})

	var violation *permissions.SchemaViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected SchemaViolationError, got %v", err)
	}
}

func TestGrantServicePatch(t *testing.T) {
	repo := newMemRepository()
	service := newGrantService(repo, nil)
	ctx := context.Background()

	created, err := service.Create(ctx, &CreateGrantRequest{
		Document: permissions.Partial{
			permissions.CategoryAttendance: {
				permissions.CapViewAttendance:   true,
				permissions.CapManageAttendance: true,
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patched, err := service.Patch(ctx, created.ID, &PatchGrantRequest{
		Document: permissions.Partial{
			permissions.CategoryAttendance: {permissions.CapManageAttendance: false},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if patched.Decoded.Granted(permissions.CategoryAttendance, permissions.CapManageAttendance) {
		t.Error("patched capability should be revoked")
	}
	// Entries the patch does not mention keep their value.
	if !patched.Decoded.Granted(permissions.CategoryAttendance, permissions.CapViewAttendance) {
		t.Error("untouched capability lost its value")
	}

	// The patch must be persisted, not just reflected in the response.
	reloaded, err := service.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Decoded.Granted(permissions.CategoryAttendance, permissions.CapManageAttendance) {
		t.Error("patch was not persisted")
	}
}

func TestGrantServicePatchUnknownGrant(t *testing.T) {
	service := newGrantService(newMemRepository(), nil)

	_, err := service.Patch(context.Background(), "missing", &PatchGrantRequest{
		Document: permissions.Partial{
			permissions.CategoryAttendance: {permissions.CapViewAttendance: true},
		},
	})
	if !errors.Is(err, ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}
}

func TestGrantServiceDelete(t *testing.T) {
	repo := newMemRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	service := newGrantService(repo, publisher)
	ctx := context.Background()

	created, err := service.Create(ctx, &CreateGrantRequest{Document: permissions.Partial{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	publisher.ClearEvents()

	if err := service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.GetByID(ctx, created.ID); !errors.Is(err, ErrGrantNotFound) {
		t.Errorf("expected ErrGrantNotFound after delete, got %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventGrantDeleted {
		t.Errorf("expected one grant.deleted event, got %v", published)
	}

	if err := service.Delete(ctx, created.ID); !errors.Is(err, ErrGrantNotFound) {
		t.Errorf("expected ErrGrantNotFound on double delete, got %v", err)
	}
}
