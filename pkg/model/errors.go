package model

import (
	"errors"
	"fmt"
)

// ErrSchema is matched by every structural/schema error
var ErrSchema = errors.New("schema violation")

// SchemaError reports an absent column or a value the schema requires
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema violation in %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("schema violation in %s.%s: %s", e.Table, e.Column, e.Reason)
}

// Is lets errors.Is(err, ErrSchema) match any SchemaError
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
