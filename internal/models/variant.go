package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Scope identifies the (course, year, semester) bucket a generation run
// belongs to. Variants only compete for approval within one scope.
type Scope struct {
	Course   string `json:"course"`
	Year     int    `json:"year"`
	Semester int    `json:"semester"`
}

// Key returns the canonical cache/session key for the scope.
func (s Scope) Key() string {
	return fmt.Sprintf("%s:%d:%d", s.Course, s.Year, s.Semester)
}

// String implements fmt.Stringer.
func (s Scope) String() string {
	return s.Key()
}

// ApprovalState tracks whether a variant is the authoritative schedule for
// its scope.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "PENDING"
	ApprovalApproved ApprovalState = "APPROVED"
)

// VariantStatistics summarizes one generation run.
type VariantStatistics struct {
	SectionCount int `json:"sectionCount"`
	FacultyCount int `json:"facultyCount"`
	TotalClasses int `json:"totalClasses"`
}

// Variant is one ranked candidate timetable for a scope. List responses
// carry only the summary fields; Sections and Faculty are populated by
// hydration and stay nil until then.
type Variant struct {
	ID            string                     `json:"id"`
	Rank          int                        `json:"rank"`
	FitnessScore  float64                    `json:"fitnessScore"`
	Statistics    VariantStatistics          `json:"statistics"`
	ApprovalState ApprovalState              `json:"approvalState"`
	Sections      map[string]*ScheduleEntity `json:"sections,omitempty"`
	Faculty       map[string]*ScheduleEntity `json:"faculty,omitempty"`
	SectionOrder  []string                   `json:"sectionOrder,omitempty"`
	FacultyOrder  []string                   `json:"facultyOrder,omitempty"`
	GeneratedAt   time.Time                  `json:"generatedAt"`
}

// UnmarshalJSON decodes a variant and captures the declared entity order
// of the detail payload. The backend emits sections/faculty as JSON objects
// whose key order is the export traversal order; Go's map decoding would
// otherwise discard it. Payloads that carry explicit order fields (cache
// round-trips) keep them untouched.
func (v *Variant) UnmarshalJSON(data []byte) error {
	type variantAlias Variant
	var a variantAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*v = Variant(a)
	if v.Sections != nil && len(v.SectionOrder) == 0 {
		v.SectionOrder = objectKeyOrder(data, "sections")
	}
	if v.Faculty != nil && len(v.FacultyOrder) == 0 {
		v.FacultyOrder = objectKeyOrder(data, "faculty")
	}
	return nil
}

// objectKeyOrder returns the keys of the named top-level object field in
// document order, or nil when the field is absent or not an object.
func objectKeyOrder(data []byte, field string) []string {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := keyTok.(string)
		if key != field {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil
			}
			continue
		}
		tok, err := dec.Token()
		if err != nil || tok != json.Delim('{') {
			return nil
		}
		var keys []string
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil
			}
			k, _ := keyTok.(string)
			keys = append(keys, k)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil
			}
		}
		return keys
	}
	return nil
}

// Hydrated reports whether the variant carries full grid detail. A summary
// from a list response is never hydrated.
func (v *Variant) Hydrated() bool {
	return v != nil && v.Sections != nil && v.Faculty != nil
}

// Approved reports whether this variant is the scope's authoritative
// schedule.
func (v *Variant) Approved() bool {
	return v != nil && v.ApprovalState == ApprovalApproved
}

// EntitiesOf returns the variant's entities of one kind in their declared
// order. The order comes from the detail payload and is never re-sorted.
func (v *Variant) EntitiesOf(kind EntityKind) []*ScheduleEntity {
	var byID map[string]*ScheduleEntity
	var order []string
	switch kind {
	case EntityKindFaculty:
		byID, order = v.Faculty, v.FacultyOrder
	default:
		byID, order = v.Sections, v.SectionOrder
	}
	if len(byID) == 0 {
		return nil
	}
	entities := make([]*ScheduleEntity, 0, len(byID))
	seen := make(map[string]bool, len(byID))
	for _, id := range order {
		if entity, ok := byID[id]; ok && !seen[id] {
			entities = append(entities, entity)
			seen[id] = true
		}
	}
	// Entities missing from the declared order still export, appended last.
	if len(entities) < len(byID) {
		rest := make([]*ScheduleEntity, 0, len(byID)-len(entities))
		for id, entity := range byID {
			if !seen[id] {
				rest = append(rest, entity)
			}
		}
		sortEntitiesByName(rest)
		entities = append(entities, rest...)
	}
	return entities
}

// Entity looks up one entity of the given kind by id.
func (v *Variant) Entity(kind EntityKind, id string) (*ScheduleEntity, bool) {
	if v == nil {
		return nil, false
	}
	var byID map[string]*ScheduleEntity
	if kind == EntityKindFaculty {
		byID = v.Faculty
	} else {
		byID = v.Sections
	}
	entity, ok := byID[id]
	return entity, ok
}

func sortEntitiesByName(entities []*ScheduleEntity) {
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
}
