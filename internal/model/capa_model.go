package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ids are assigned in Go (BeforeCreate) rather than by a database default so
// the same schema runs on postgres and sqlite.

type Audit struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title       string     `gorm:"type:varchar(255);not null"`
	Description *string    `gorm:"type:text"`
	AuditDate   *time.Time `gorm:"index"`
	AuditorId   *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (Audit) TableName() string {
	return "audits"
}

func (m *Audit) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

type CapaPlan struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuditId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"` // exactly one plan per audit
	Description *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (CapaPlan) TableName() string {
	return "capa_plans"
}

func (m *CapaPlan) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

type NonConformity struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CapaPlanId  uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Description *string   `gorm:"type:text"`
	Severity    *string   `gorm:"type:varchar(20)"`
	RootCause   *string   `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(20);not null;default:'open'"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (NonConformity) TableName() string {
	return "non_conformities"
}

func (m *NonConformity) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

type Action struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	NonConformityId uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActionType      string     `gorm:"type:varchar(20);not null"`
	Description     string     `gorm:"type:text;not null"`
	ResponsibleId   *uuid.UUID `gorm:"type:uuid;index"`
	DueDate         *time.Time
	Status          string    `gorm:"type:varchar(20);not null;default:'open'"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Action) TableName() string {
	return "actions"
}

func (m *Action) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

type ActionAttachment struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ActionId   uuid.UUID `gorm:"type:uuid;not null;index"`
	BucketId   string    `gorm:"type:varchar(100);not null"`
	ObjectPath string    `gorm:"type:text;not null"`
	FileName   string    `gorm:"type:varchar(255)"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (ActionAttachment) TableName() string {
	return "action_attachments"
}

func (m *ActionAttachment) BeforeCreate(tx *gorm.DB) error {
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	return nil
}

// AllCapaModels lists the workflow tables in migration order.
func AllCapaModels() []interface{} {
	return []interface{}{
		&Audit{},
		&CapaPlan{},
		&NonConformity{},
		&Action{},
		&ActionAttachment{},
	}
}
