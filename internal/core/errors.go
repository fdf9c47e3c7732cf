package core

import (
	"clinicboard/pkg/domain"
	"fmt"
)

// DuplicateIDError reports an attempt to create an entity under an existing
// identifier. Duplicates are validation failures, not authorization failures,
// so they surface as errors instead of activity-log rejections.
type DuplicateIDError struct {
	Entity domain.EntityType
	ID     string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.ID)
}

// NotFoundError reports a lookup against a missing entity where silence would
// hide a caller bug.
type NotFoundError struct {
	Entity domain.EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
