package permissions

import (
	"encoding/json"
	"errors"
	"testing"
)

// testSchema is a reduced schema so cases stay readable.
func testSchema() *Schema {
	return NewSchema("test", map[Category][]Capability{
		CategoryAttendance:        {CapViewAttendance, CapManageAttendance},
		CategoryStudentManagement: {CapView, CapAdd},
	})
}

func TestValidateAndNormalize(t *testing.T) {
	s := testSchema()

	tests := []struct {
		name    string
		raw     Partial
		wantErr bool
		check   func(t *testing.T, doc Document)
	}{
		{
			name: "empty partial yields all-false",
			raw:  Partial{},
			check: func(t *testing.T, doc Document) {
				if !doc.Equal(s.Default()) {
					t.Errorf("expected default document, got %v", doc)
				}
			},
		},
		{
			name: "omitted fields default to false",
			raw:  Partial{CategoryAttendance: {CapManageAttendance: true}},
			check: func(t *testing.T, doc Document) {
				if !doc.Granted(CategoryAttendance, CapManageAttendance) {
					t.Error("explicit grant lost during normalization")
				}
				if doc.Granted(CategoryAttendance, CapViewAttendance) {
					t.Error("omitted capability should default to false")
				}
				if doc.Granted(CategoryStudentManagement, CapView) {
					t.Error("omitted category should default to false")
				}
			},
		},
		{
			name:    "unknown category rejected",
			raw:     Partial{"payroll": {CapView: true}},
			wantErr: true,
		},
		{
			name:    "unknown capability rejected",
			raw:     Partial{CategoryAttendance: {"can_fly": true}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := s.ValidateAndNormalize(tt.raw)
			if tt.wantErr {
				var sv *SchemaViolationError
				if !errors.As(err, &sv) {
					t.Fatalf("expected SchemaViolationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, doc)
		})
	}
}

func TestMergeProperties(t *testing.T) {
	s := testSchema()

	a, err := s.ValidateAndNormalize(Partial{CategoryAttendance: {CapManageAttendance: true}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.ValidateAndNormalize(Partial{
		CategoryAttendance:        {CapViewAttendance: true},
		CategoryStudentManagement: {CapView: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("commutative", func(t *testing.T) {
		if !s.Merge(a, b).Equal(s.Merge(b, a)) {
			t.Error("merge(a,b) != merge(b,a)")
		}
	})

	t.Run("default is identity element", func(t *testing.T) {
		if !s.Merge(a, s.Default()).Equal(a) {
			t.Error("merge(a, default()) != a")
		}
	})

	t.Run("associative", func(t *testing.T) {
		c, _ := s.ValidateAndNormalize(Partial{CategoryStudentManagement: {CapAdd: true}})
		left := s.Merge(s.Merge(a, b), c)
		right := s.Merge(a, s.Merge(b, c))
		if !left.Equal(right) {
			t.Error("merge is not associative")
		}
	})

	t.Run("grants from either side survive", func(t *testing.T) {
		m := s.Merge(a, b)
		if !m.Granted(CategoryAttendance, CapManageAttendance) ||
			!m.Granted(CategoryAttendance, CapViewAttendance) ||
			!m.Granted(CategoryStudentManagement, CapView) {
			t.Errorf("merged document dropped a grant: %v", m)
		}
	})
}

func TestPatch(t *testing.T) {
	s := testSchema()

	base, err := s.ValidateAndNormalize(Partial{
		CategoryAttendance: {CapViewAttendance: true, CapManageAttendance: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	patched, err := s.Patch(base, Partial{CategoryAttendance: {CapManageAttendance: false}})
	if err != nil {
		t.Fatal(err)
	}

	if patched.Granted(CategoryAttendance, CapManageAttendance) {
		t.Error("patched field should be overwritten")
	}
	if !patched.Granted(CategoryAttendance, CapViewAttendance) {
		t.Error("unspecified field must stay unchanged")
	}
	// base must not be mutated
	if !base.Granted(CategoryAttendance, CapManageAttendance) {
		t.Error("patch mutated its input")
	}

	if _, err := s.Patch(base, Partial{"nope": nil}); err == nil {
		t.Error("patch with unknown category should fail")
	}
}

func TestDecodeDocumentRoundTrip(t *testing.T) {
	s := testSchema()

	doc, err := s.ValidateAndNormalize(Partial{CategoryStudentManagement: {CapAdd: true}})
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := s.DecodeDocument(data)
	if err != nil {
		t.Fatal(err)
	}
	if !decoded.Equal(doc) {
		t.Errorf("round-trip mismatch: %v != %v", decoded, doc)
	}
}

func TestDefaultSchema(t *testing.T) {
	s := DefaultSchema()

	if s.Version() != "v1" {
		t.Errorf("expected version v1, got %s", s.Version())
	}
	if !s.Defines(CategoryAttendance, CapManageAttendance) {
		t.Error("v1 schema should define attendance.can_manage_attendance")
	}
	if s.Defines(CategoryAttendance, CapCollectFees) {
		t.Error("capability sets must not leak across categories")
	}
	for _, cat := range s.Categories() {
		if len(s.Capabilities(cat)) == 0 {
			t.Errorf("category %s has no capabilities", cat)
		}
	}
}
