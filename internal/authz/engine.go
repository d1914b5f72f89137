package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/repositories"
)

// Engine answers permission questions for one identity by folding its
// direct grants and every grant reachable through its roles into a single
// effective document. The schema is injected so tests can supply a
// reduced one; there is no module-level registry.
type Engine struct {
	schema *permissions.Schema
	repo   repositories.Repository
	logger *slog.Logger
}

func NewEngine(schema *permissions.Schema, repo repositories.Repository, logger *slog.Logger) *Engine {
	return &Engine{schema: schema, repo: repo, logger: logger}
}

func (e *Engine) Schema() *permissions.Schema {
	return e.schema
}

// EffectiveDocument collects the identity's grants (set union by grant id
// across direct and role-carried grants) and OR-merges them. The second
// return value is false when the identity has no grants at all, which is
// a distinct state from "has grants but all false".
func (e *Engine) EffectiveDocument(ctx context.Context, userID string) (permissions.Document, bool, error) {
	user, err := e.repo.User().GetWithAccess(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, false, fmt.Errorf("identity %s: %w", userID, err)
		}
		return nil, false, fmt.Errorf("failed to load identity access: %w", err)
	}

	seen := make(map[string]struct{})
	var grants []*models.PermissionGrant

	collect := func(g *models.PermissionGrant) {
		if g == nil {
			return
		}
		if _, ok := seen[g.ID]; ok {
			return
		}
		seen[g.ID] = struct{}{}
		grants = append(grants, g)
	}

	for _, g := range user.Grants {
		collect(g)
	}
	for _, role := range user.Roles {
		for _, g := range role.Grants {
			collect(g)
		}
	}

	if len(grants) == 0 {
		return e.schema.Default(), false, nil
	}

	effective := e.schema.Default()
	for _, g := range grants {
		doc, err := e.schema.DecodeDocument(g.Document)
		if err != nil {
			return nil, false, fmt.Errorf("grant %s holds an invalid document: %w", g.ID, err)
		}
		effective = e.schema.Merge(effective, doc)
	}

	return effective, true, nil
}

// HasPermission reports whether the identity holds the capability. An
// identity with no grants configured fails with ErrNoPermissionsConfigured
// so call sites can report it separately from an ordinary denial.
func (e *Engine) HasPermission(ctx context.Context, userID string, cat permissions.Category, cap permissions.Capability) (bool, error) {
	if !e.schema.Defines(cat, cap) {
		return false, &permissions.SchemaViolationError{Category: cat, Capability: cap}
	}

	doc, configured, err := e.EffectiveDocument(ctx, userID)
	if err != nil {
		return false, err
	}
	if !configured {
		return false, ErrNoPermissionsConfigured
	}

	return doc.Granted(cat, cap), nil
}

// RequirePermission is the strict form of HasPermission: it fails with
// ErrForbidden when the capability is not granted.
func (e *Engine) RequirePermission(ctx context.Context, userID string, cat permissions.Category, cap permissions.Capability) error {
	granted, err := e.HasPermission(ctx, userID, cat, cap)
	if err != nil {
		return err
	}
	if !granted {
		return fmt.Errorf("%s.%s for identity %s: %w", cat, cap, userID, ErrForbidden)
	}
	return nil
}

// HasRoleType reports whether the identity holds a role of any of the
// given types. This predicate never consults permission documents; call
// sites needing both checks must combine them explicitly.
func (e *Engine) HasRoleType(ctx context.Context, userID string, types ...models.RoleType) (bool, error) {
	held, err := e.repo.Role().TypesOfUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load role types: %w", err)
	}
	for _, h := range held {
		for _, t := range types {
			if h == t {
				return true, nil
			}
		}
	}
	return false, nil
}
