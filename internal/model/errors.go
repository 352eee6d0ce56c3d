package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a failure detected while resolving or reading an
// instance. It carries structured fields for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	ClassID    ClassID
	InstanceID InstanceID
	Property   string
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeUnknownClass indicates the class id (or name) is not in the catalog.
	ErrCodeUnknownClass ErrorCode = "UNKNOWN_CLASS"

	// ErrCodePropertyNotFound indicates the property is not declared on the
	// class or any of its ancestors.
	ErrCodePropertyNotFound ErrorCode = "PROPERTY_NOT_FOUND"

	// ErrCodeInstanceNotFound indicates no row exists for the instance.
	ErrCodeInstanceNotFound ErrorCode = "INSTANCE_NOT_FOUND"

	// ErrCodeMalformedProperty indicates a descriptor or stored value the
	// encoder cannot represent. This is a model integrity defect and is
	// never coerced.
	ErrCodeMalformedProperty ErrorCode = "MALFORMED_PROPERTY"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var ctx []string
	if e.ClassID != 0 {
		ctx = append(ctx, fmt.Sprintf("class=%d", e.ClassID))
	}
	if e.InstanceID != 0 {
		ctx = append(ctx, "instance="+e.InstanceID.Hex())
	}
	if e.Property != "" {
		ctx = append(ctx, "property="+e.Property)
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(ctx, ", "))
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsUnknownClass returns true if err is (or wraps) an unknown-class error.
func IsUnknownClass(err error) bool { return hasCode(err, ErrCodeUnknownClass) }

// IsPropertyNotFound returns true if err is (or wraps) a property-not-found error.
func IsPropertyNotFound(err error) bool { return hasCode(err, ErrCodePropertyNotFound) }

// IsInstanceNotFound returns true if err is (or wraps) an instance-not-found error.
func IsInstanceNotFound(err error) bool { return hasCode(err, ErrCodeInstanceNotFound) }

// IsMalformedProperty returns true if err is (or wraps) a malformed-property error.
func IsMalformedProperty(err error) bool { return hasCode(err, ErrCodeMalformedProperty) }

// NewUnknownClassError creates an Error for a class id missing from the catalog.
func NewUnknownClassError(id ClassID) *Error {
	return &Error{
		Code:    ErrCodeUnknownClass,
		Message: "class not found in catalog",
		ClassID: id,
	}
}

// NewUnknownClassNameError creates an Error for a class name that does not resolve.
func NewUnknownClassNameError(name string) *Error {
	return &Error{
		Code:    ErrCodeUnknownClass,
		Message: fmt.Sprintf("class %q not found in catalog", name),
	}
}

// NewPropertyNotFoundError creates an Error for a property absent from a class.
func NewPropertyNotFoundError(id ClassID, name string) *Error {
	return &Error{
		Code:     ErrCodePropertyNotFound,
		Message:  "property not found on class or its bases",
		ClassID:  id,
		Property: name,
	}
}

// NewInstanceNotFoundError creates an Error for a missing row.
func NewInstanceNotFoundError(classID ClassID, instanceID InstanceID) *Error {
	return &Error{
		Code:       ErrCodeInstanceNotFound,
		Message:    "no row for instance",
		ClassID:    classID,
		InstanceID: instanceID,
	}
}

// NewMalformedPropertyError creates an Error for a descriptor or value the
// encoder cannot represent.
func NewMalformedPropertyError(name, format string, args ...any) *Error {
	return &Error{
		Code:     ErrCodeMalformedProperty,
		Message:  fmt.Sprintf(format, args...),
		Property: name,
	}
}
