package validation

import (
	"errors"
	"fmt"
)

var (
	ErrMissingName = errors.New("missing name")
	ErrMissingType = errors.New("missing type")
	ErrMissingData = errors.New("missing data")
)

// NodeInput is the client-supplied part of a new file node.
// Fields are checked in declaration order and the first failure wins.
type NodeInput struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=folder file image"`
	Data string `json:"data" validate:"required_unless=Type folder"`
}

// ValidateNode checks a node creation request. An unknown type is reported
// the same way as a missing one.
func ValidateNode(in NodeInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	field, _, ok := firstField(err)
	if !ok {
		return fmt.Errorf("validate node: %w", err)
	}

	switch field {
	case "name":
		return ErrMissingName
	case "type":
		return ErrMissingType
	case "data":
		return ErrMissingData
	}
	return fmt.Errorf("invalid field %q: %w", field, err)
}
