package compiler

import (
	"fmt"

	"github.com/roach88/ecreader/internal/model"
)

// Validation error codes (E100-E199)
const (
	ErrDuplicateProperty   = "E101" // property declared twice on one class
	ErrNotAStruct          = "E102" // struct/structArray names a non-struct class
	ErrNotARelationship    = "E103" // navigation names a non-relationship class
	ErrEntityOnlySetting   = "E104" // table or discriminator on a struct/relationship
	ErrUnknownPropertyKind = "E105" // descriptor with no kind
)

// ValidationError represents a model validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the cross-class references of compiled layouts.
// Returns all errors found (does not fail-fast).
func Validate(layouts []model.ClassLayout) []ValidationError {
	types := make(map[model.ClassID]model.ClassType, len(layouts))
	for _, l := range layouts {
		types[l.ID] = l.Type
	}

	var errs []ValidationError
	for _, l := range layouts {
		class := l.QualifiedName()

		// E104: only entities map to tables
		if l.Type != model.ClassEntity && (l.Table != "" || l.ClassIDColumn != "") {
			errs = append(errs, ValidationError{
				Field:   class,
				Message: fmt.Sprintf("%s classes cannot declare a table or class id column", l.Type),
				Code:    ErrEntityOnlySetting,
			})
		}

		seen := make(map[string]bool, len(l.Properties))
		for i, p := range l.Properties {
			field := fmt.Sprintf("%s.properties[%d]", class, i)

			// E101: duplicate property name (names compare case-insensitively)
			key := model.FoldName(p.Name)
			if seen[key] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("duplicate property name: %q", p.Name),
					Code:    ErrDuplicateProperty,
				})
			}
			seen[key] = true

			switch {
			case p.Kind == model.KindUnknown:
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("property %q has no kind", p.Name),
					Code:    ErrUnknownPropertyKind,
				})
			case p.Kind == model.KindStruct || (p.Kind == model.KindArray && p.Element == model.KindStruct):
				// E102
				if types[p.StructClass] != model.ClassStruct {
					errs = append(errs, ValidationError{
						Field:   field,
						Message: fmt.Sprintf("property %q must name a struct class", p.Name),
						Code:    ErrNotAStruct,
					})
				}
			case p.Kind == model.KindNavigation:
				// E103
				if types[p.RelClass] != model.ClassRelationship {
					errs = append(errs, ValidationError{
						Field:   field,
						Message: fmt.Sprintf("navigation %q must name a relationship class", p.Name),
						Code:    ErrNotARelationship,
					})
				}
			}
		}
	}
	return errs
}
