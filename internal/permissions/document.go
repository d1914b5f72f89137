package permissions

import "encoding/json"

// Partial is a raw, possibly incomplete permission document as received
// from callers. Keys absent from a partial fall back to schema defaults
// (normalize) or stay untouched (patch).
type Partial map[Category]map[Capability]bool

// Document is a normalized permission document: every schema category and
// capability is present. Documents are only constructed through a Schema.
type Document map[Category]map[Capability]bool

// Default returns the all-false document.
func (s *Schema) Default() Document {
	doc := make(Document, len(s.order))
	for _, cat := range s.order {
		caps := make(map[Capability]bool, len(s.capOrder[cat]))
		for _, c := range s.capOrder[cat] {
			caps[c] = false
		}
		doc[cat] = caps
	}
	return doc
}

// ValidateAndNormalize checks a partial document against the schema and
// fills every omitted category/capability with false. Unknown names fail
// with SchemaViolationError.
func (s *Schema) ValidateAndNormalize(raw Partial) (Document, error) {
	if err := s.validate(raw); err != nil {
		return nil, err
	}
	doc := s.Default()
	for cat, caps := range raw {
		for c, granted := range caps {
			doc[cat][c] = granted
		}
	}
	return doc, nil
}

// Merge ORs two normalized documents per field: a capability is granted if
// either input grants it. The operation is associative and commutative, so
// it can fold an unordered set of grants.
func (s *Schema) Merge(a, b Document) Document {
	doc := s.Default()
	for _, cat := range s.order {
		for _, c := range s.capOrder[cat] {
			doc[cat][c] = a.Granted(cat, c) || b.Granted(cat, c)
		}
	}
	return doc
}

// Patch deep-merges a partial document into base: fields present in the
// partial overwrite, fields absent are untouched. This is the edit
// semantics for updating a single stored grant, distinct from Merge.
func (s *Schema) Patch(base Document, partial Partial) (Document, error) {
	if err := s.validate(partial); err != nil {
		return nil, err
	}
	doc := base.clone()
	for cat, caps := range partial {
		for c, granted := range caps {
			doc[cat][c] = granted
		}
	}
	return doc, nil
}

// DecodeDocument parses a stored JSON document and re-normalizes it, so a
// document written under an older schema revision gains the new defaults.
func (s *Schema) DecodeDocument(data []byte) (Document, error) {
	var raw Partial
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return s.ValidateAndNormalize(raw)
}

func (s *Schema) validate(raw Partial) error {
	for cat, caps := range raw {
		defined, ok := s.categories[cat]
		if !ok {
			return &SchemaViolationError{Category: cat}
		}
		for c := range caps {
			if _, ok := defined[c]; !ok {
				return &SchemaViolationError{Category: cat, Capability: c}
			}
		}
	}
	return nil
}

// Granted reports whether the document grants the capability. Unknown
// pairs read as false; the engine checks Defines separately.
func (d Document) Granted(cat Category, cap Capability) bool {
	caps, ok := d[cat]
	if !ok {
		return false
	}
	return caps[cap]
}

func (d Document) clone() Document {
	out := make(Document, len(d))
	for cat, caps := range d {
		c := make(map[Capability]bool, len(caps))
		for k, v := range caps {
			c[k] = v
		}
		out[cat] = c
	}
	return out
}

// Equal reports field-wise equality of two documents.
func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for cat, caps := range d {
		o, ok := other[cat]
		if !ok || len(caps) != len(o) {
			return false
		}
		for c, v := range caps {
			if o[c] != v {
				return false
			}
		}
	}
	return true
}
