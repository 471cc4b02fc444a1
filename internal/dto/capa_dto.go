package dto

import (
	"time"

	"github.com/google/uuid"
)

// Warning describes a partial outcome: the main record was saved but
// something attached to it was not.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type CreateAuditRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description *string    `json:"description"`
	AuditDate   *time.Time `json:"audit_date"`
	AuditorId   *uuid.UUID `json:"auditor_id"`
}

type AuditResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	AuditDate   *time.Time `json:"audit_date"`
	AuditorId   *uuid.UUID `json:"auditor_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type CapaPlanResponse struct {
	Id          uuid.UUID  `json:"id"`
	AuditId     uuid.UUID  `json:"audit_id"`
	Description *string    `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type CreateAuditResponse struct {
	Audit    *AuditResponse    `json:"audit"`
	CapaPlan *CapaPlanResponse `json:"capa_plan"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

type CreateNonConformityRequest struct {
	CapaPlanId  uuid.UUID `json:"capa_plan_id" validate:"required"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description *string   `json:"description"`
	Severity    *string   `json:"severity" validate:"omitempty,oneof=minor major critical"`
	RootCause   *string   `json:"root_cause"`
	Status      string    `json:"status" validate:"omitempty,oneof=open in_progress closed"`
}

type UpdateNonConformityRequest struct {
	Id          uuid.UUID
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Severity    *string `json:"severity" validate:"omitempty,oneof=minor major critical"`
	RootCause   *string `json:"root_cause"`
	Status      *string `json:"status" validate:"omitempty,oneof=open in_progress closed"`
}

type NonConformityResponse struct {
	Id          uuid.UUID  `json:"id"`
	CapaPlanId  uuid.UUID  `json:"capa_plan_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Severity    *string    `json:"severity"`
	RootCause   *string    `json:"root_cause"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type CreateNonConformityResponse struct {
	NonConformity *NonConformityResponse `json:"non_conformity"`
	InitialAction *ActionResponse        `json:"initial_action"`
	Warnings      []Warning              `json:"warnings,omitempty"`
}

type CreateActionRequest struct {
	NonConformityId uuid.UUID  `json:"non_conformity_id" form:"non_conformity_id" validate:"required"`
	ActionType      string     `json:"action_type" form:"action_type" validate:"required,oneof=corrective preventive"`
	Description     string     `json:"description" form:"description" validate:"required"`
	ResponsibleId   *uuid.UUID `json:"responsible_id" form:"responsible_id"`
	DueDate         *time.Time `json:"due_date" form:"due_date"`
	Status          string     `json:"status" form:"status" validate:"omitempty,oneof=open in_progress closed overdue"`
}

type UpdateActionRequest struct {
	Id            uuid.UUID
	ActionType    *string    `json:"action_type" validate:"omitempty,oneof=corrective preventive"`
	Description   *string    `json:"description" validate:"omitempty,min=1"`
	ResponsibleId *uuid.UUID `json:"responsible_id"`
	DueDate       *time.Time `json:"due_date"`
	Status        *string    `json:"status" validate:"omitempty,oneof=open in_progress closed overdue"`
}

type UpdateActionStatusRequest struct {
	Id     uuid.UUID
	Status string `json:"status" validate:"required,oneof=open in_progress closed overdue"`
}

type ActionAttachmentResponse struct {
	Id         uuid.UUID `json:"id"`
	ActionId   uuid.UUID `json:"action_id"`
	BucketId   string    `json:"bucket_id"`
	ObjectPath string    `json:"object_path"`
	FileName   string    `json:"file_name"`
	URL        string    `json:"url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ActionResponse struct {
	Id              uuid.UUID                   `json:"id"`
	NonConformityId uuid.UUID                   `json:"non_conformity_id"`
	ActionType      string                      `json:"action_type"`
	Description     string                      `json:"description"`
	ResponsibleId   *uuid.UUID                  `json:"responsible_id"`
	DueDate         *time.Time                  `json:"due_date"`
	Status          string                      `json:"status"`
	Attachments     []*ActionAttachmentResponse `json:"attachments"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       *time.Time                  `json:"updated_at"`
}

type CreateActionResponse struct {
	Action   *ActionResponse `json:"action"`
	Warnings []Warning       `json:"warnings,omitempty"`
}

// CapaCollectionsResponse is the four collections as stored, unjoined.
type CapaCollectionsResponse struct {
	Audits          []*AuditResponse         `json:"audits"`
	CapaPlans       []*CapaPlanResponse      `json:"capa_plans"`
	NonConformities []*NonConformityResponse `json:"non_conformities"`
	Actions         []*ActionResponse        `json:"actions"`
}

type NonConformityViewResponse struct {
	NonConformity *NonConformityResponse `json:"non_conformity"`
	Actions       []*ActionResponse      `json:"actions"`
	// MissingInitialAction is set when the NC has no corrective action.
	MissingInitialAction bool `json:"missing_initial_action"`
}

type AuditViewResponse struct {
	Audit           *AuditResponse               `json:"audit"`
	CapaPlan        *CapaPlanResponse            `json:"capa_plan"`
	MissingCapaPlan bool                         `json:"missing_capa_plan"`
	NonConformities []*NonConformityViewResponse `json:"non_conformities"`
}

type IntegrityReportResponse struct {
	AuditsWithoutCapaPlan                  []uuid.UUID `json:"audits_without_capa_plan"`
	NonConformitiesWithoutCorrectiveAction []uuid.UUID `json:"non_conformities_without_corrective_action"`
}

type RepairAuditResponse struct {
	Created  bool              `json:"created"`
	CapaPlan *CapaPlanResponse `json:"capa_plan"`
}

type RepairNonConformityResponse struct {
	Created bool            `json:"created"`
	Action  *ActionResponse `json:"action"`
}
