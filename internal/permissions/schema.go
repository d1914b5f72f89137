package permissions

import (
	"fmt"
	"sort"
)

type Category string
type Capability string

// Categories of the v1 schema. These names are consumed by front-end
// authorization UIs; renaming one is a breaking change and requires a
// new schema version.
const (
	CategoryStudentManagement   Category = "student_management"
	CategoryTeacherManagement   Category = "teacher_management"
	CategoryParentManagement    Category = "parent_management"
	CategoryClassroomManagement Category = "classroom_management"
	CategoryExamResults         Category = "exam_results"
	CategoryAttendance          Category = "attendance"
	CategoryFeeManagement       Category = "fee_management"
	CategoryTimetable           Category = "timetable"
	CategoryReports             Category = "reports"
	CategoryRoleManagement      Category = "role_management"
)

const (
	CapView   Capability = "can_view"
	CapAdd    Capability = "can_add"
	CapEdit   Capability = "can_edit"
	CapDelete Capability = "can_delete"

	CapViewResults   Capability = "can_view_results"
	CapAddResults    Capability = "can_add_results"
	CapEditResults   Capability = "can_edit_results"
	CapDeleteResults Capability = "can_delete_results"

	CapViewAttendance   Capability = "can_view_attendance"
	CapManageAttendance Capability = "can_manage_attendance"

	CapViewFees    Capability = "can_view_fees"
	CapCollectFees Capability = "can_collect_fees"
	CapEditFees    Capability = "can_edit_fees"

	CapViewTimetable   Capability = "can_view_timetable"
	CapManageTimetable Capability = "can_manage_timetable"

	CapViewReports     Capability = "can_view_reports"
	CapGenerateReports Capability = "can_generate_reports"
)

// SchemaViolationError reports an unknown category or capability in a
// permission document. It indicates a caller bug and is not retryable.
type SchemaViolationError struct {
	Category   Category
	Capability Capability
}

func (e *SchemaViolationError) Error() string {
	if e.Capability == "" {
		return fmt.Sprintf("permission schema violation: unknown category %q", e.Category)
	}
	return fmt.Sprintf("permission schema violation: unknown capability %q in category %q", e.Capability, e.Category)
}

// Schema is the single source of truth for permission validation and
// defaults. It is an explicit, versioned value constructed once and passed
// into the authorization engine; tests may supply a reduced schema.
type Schema struct {
	version    string
	categories map[Category]map[Capability]struct{}
	order      []Category
	capOrder   map[Category][]Capability
}

// NewSchema builds a schema from category definitions. Iteration order of
// Categories and Capabilities is sorted and stable.
func NewSchema(version string, defs map[Category][]Capability) *Schema {
	s := &Schema{
		version:    version,
		categories: make(map[Category]map[Capability]struct{}, len(defs)),
		capOrder:   make(map[Category][]Capability, len(defs)),
	}
	for cat, caps := range defs {
		set := make(map[Capability]struct{}, len(caps))
		sorted := make([]Capability, len(caps))
		copy(sorted, caps)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for _, c := range sorted {
			set[c] = struct{}{}
		}
		s.categories[cat] = set
		s.capOrder[cat] = sorted
		s.order = append(s.order, cat)
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	return s
}

// DefaultSchema returns the v1 school-management permission schema.
func DefaultSchema() *Schema {
	crud := []Capability{CapView, CapAdd, CapEdit, CapDelete}
	return NewSchema("v1", map[Category][]Capability{
		CategoryStudentManagement:   crud,
		CategoryTeacherManagement:   crud,
		CategoryParentManagement:    crud,
		CategoryClassroomManagement: crud,
		CategoryExamResults:         {CapViewResults, CapAddResults, CapEditResults, CapDeleteResults},
		CategoryAttendance:          {CapViewAttendance, CapManageAttendance},
		CategoryFeeManagement:       {CapViewFees, CapCollectFees, CapEditFees},
		CategoryTimetable:           {CapViewTimetable, CapManageTimetable},
		CategoryReports:             {CapViewReports, CapGenerateReports},
		CategoryRoleManagement:      crud,
	})
}

func (s *Schema) Version() string {
	return s.version
}

// Categories returns every category in stable order.
func (s *Schema) Categories() []Category {
	return s.order
}

// Capabilities returns the capability names of one category in stable order.
func (s *Schema) Capabilities(cat Category) []Capability {
	return s.capOrder[cat]
}

// Defines reports whether the category/capability pair is part of the schema.
func (s *Schema) Defines(cat Category, cap Capability) bool {
	caps, ok := s.categories[cat]
	if !ok {
		return false
	}
	_, ok = caps[cap]
	return ok
}
