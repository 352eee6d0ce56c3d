package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ClassID identifies a class in the object model.
type ClassID uint64

// InstanceID identifies a persisted object.
type InstanceID uint64

// Hex renders the id the way documents carry it: lowercase hex with a 0x prefix.
func (id InstanceID) Hex() string {
	return "0x" + strconv.FormatUint(uint64(id), 16)
}

// Hex renders the class id as lowercase hex with a 0x prefix.
func (id ClassID) Hex() string {
	return "0x" + strconv.FormatUint(uint64(id), 16)
}

// ParseID parses a decimal or 0x-prefixed hexadecimal id.
func ParseID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err := strconv.ParseUint(rest, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex id %q: %w", s, err)
		}
		return v, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return v, nil
}
