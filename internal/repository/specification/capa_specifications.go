package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByAuditID struct {
	AuditID uuid.UUID
}

func (s ByAuditID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("audit_id = ?", s.AuditID)
}

type ByNonConformityID struct {
	NonConformityID uuid.UUID
}

func (s ByNonConformityID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("non_conformity_id = ?", s.NonConformityID)
}

type ByActionID struct {
	ActionID uuid.UUID
}

func (s ByActionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("action_id = ?", s.ActionID)
}

type ByActionIDs struct {
	ActionIDs []uuid.UUID
}

func (s ByActionIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("action_id IN ?", s.ActionIDs)
}

type ByActionType struct {
	ActionType string
}

func (s ByActionType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("action_type = ?", s.ActionType)
}
