package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/repositories"
)

const exportSheet = "Permissions"

type exportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	schema *permissions.Schema
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, schema *permissions.Schema) ExportService {
	return &exportService{
		repo:   repo,
		db:     db,
		logger: logger,
		schema: schema,
	}
}

// ExportPermissionMatrix renders every role of the school (or the
// platform-level roles when schoolID is nil) against every capability of
// the schema, one row per role.
func (s *exportService) ExportPermissionMatrix(ctx context.Context, schoolID *string) ([]byte, error) {
	roles, _, err := s.repo.Role().List(ctx, repositories.RoleFilters{
		SchoolID: schoolID,
		Limit:    500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	if schoolID == nil {
		// List leaves the scope unconstrained for a nil school id; keep
		// only the platform-level roles here.
		platform := roles[:0]
		for _, role := range roles {
			if role.SchoolID == nil {
				platform = append(platform, role)
			}
		}
		roles = platform
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", "error", err)
		}
	}()

	sheet, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(sheet)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	// Header: Role, Type, then one column per category.capability in
	// schema order.
	headers := []string{"Role", "Type"}
	type column struct {
		cat permissions.Category
		cap permissions.Capability
	}
	var columns []column
	for _, cat := range s.schema.Categories() {
		for _, capability := range s.schema.Capabilities(cat) {
			columns = append(columns, column{cat: cat, cap: capability})
			headers = append(headers, fmt.Sprintf("%s.%s", cat, capability))
		}
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, role := range roles {
		doc, err := s.roleDocument(role)
		if err != nil {
			return nil, err
		}

		values := []interface{}{role.Name, string(role.Type)}
		for _, col := range columns {
			values = append(values, doc.Granted(col.cat, col.cap))
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("Permission matrix exported", "roles", len(roles))
	return buf.Bytes(), nil
}

// roleDocument OR-merges every grant attached to the role.
func (s *exportService) roleDocument(role *models.Role) (permissions.Document, error) {
	doc := s.schema.Default()
	for _, g := range role.Grants {
		decoded, err := s.schema.DecodeDocument(g.Document)
		if err != nil {
			return nil, fmt.Errorf("grant %s holds an invalid document: %w", g.ID, err)
		}
		doc = s.schema.Merge(doc, decoded)
	}
	return doc, nil
}
