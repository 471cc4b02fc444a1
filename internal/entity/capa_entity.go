// FILE: internal/entity/capa_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type ActionType string
type ActionStatus string
type NonConformityStatus string
type Severity string

const (
	ActionTypeCorrective ActionType = "corrective"
	ActionTypePreventive ActionType = "preventive"

	ActionStatusOpen       ActionStatus = "open"
	ActionStatusInProgress ActionStatus = "in_progress"
	ActionStatusClosed     ActionStatus = "closed"
	ActionStatusOverdue    ActionStatus = "overdue"

	NonConformityStatusOpen       NonConformityStatus = "open"
	NonConformityStatusInProgress NonConformityStatus = "in_progress"
	NonConformityStatusClosed     NonConformityStatus = "closed"

	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

type Audit struct {
	Id          uuid.UUID
	Title       string
	Description *string
	AuditDate   *time.Time
	AuditorId   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// CapaPlan is owned 1:1 by an Audit.
type CapaPlan struct {
	Id          uuid.UUID
	AuditId     uuid.UUID
	Description *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type NonConformity struct {
	Id          uuid.UUID
	CapaPlanId  uuid.UUID
	Title       string
	Description *string
	Severity    *Severity
	RootCause   *string
	Status      NonConformityStatus
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type Action struct {
	Id              uuid.UUID
	NonConformityId uuid.UUID
	ActionType      ActionType
	Description     string
	ResponsibleId   *uuid.UUID
	DueDate         *time.Time
	Status          ActionStatus
	Attachments     []*ActionAttachment
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// ActionAttachment points into blob storage; it only exists after a successful upload.
type ActionAttachment struct {
	Id         uuid.UUID
	ActionId   uuid.UUID
	BucketId   string
	ObjectPath string
	FileName   string
	CreatedAt  time.Time
}

func (s ActionStatus) Valid() bool {
	switch s {
	case ActionStatusOpen, ActionStatusInProgress, ActionStatusClosed, ActionStatusOverdue:
		return true
	}
	return false
}

func (t ActionType) Valid() bool {
	return t == ActionTypeCorrective || t == ActionTypePreventive
}
