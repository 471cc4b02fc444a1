package service

import (
	"errors"
	"fmt"

	"qms-compliance-be/internal/dto"
)

type WorkflowErrorKind string

const (
	AuditCreationFailed         WorkflowErrorKind = "AUDIT_CREATION_FAILED"
	CapaPlanCreationFailed      WorkflowErrorKind = "CAPA_PLAN_CREATION_FAILED"
	NonConformityCreationFailed WorkflowErrorKind = "NON_CONFORMITY_CREATION_FAILED"
	InitialActionCreationFailed WorkflowErrorKind = "INITIAL_ACTION_CREATION_FAILED"
	ActionCreationFailed        WorkflowErrorKind = "ACTION_CREATION_FAILED"
	AttachmentUploadFailed      WorkflowErrorKind = "ATTACHMENT_UPLOAD_FAILED"
	UpdateFailed                WorkflowErrorKind = "UPDATE_FAILED"
	RepairFailed                WorkflowErrorKind = "REPAIR_FAILED"
	ReadFailed                  WorkflowErrorKind = "READ_FAILED"
	InvalidInput                WorkflowErrorKind = "INVALID_INPUT"
	AuditNotFound               WorkflowErrorKind = "AUDIT_NOT_FOUND"
	CapaPlanNotFound            WorkflowErrorKind = "CAPA_PLAN_NOT_FOUND"
	NonConformityNotFound       WorkflowErrorKind = "NON_CONFORMITY_NOT_FOUND"
	ActionNotFound              WorkflowErrorKind = "ACTION_NOT_FOUND"
)

var workflowMessages = map[WorkflowErrorKind]string{
	AuditCreationFailed:         "the audit could not be created",
	CapaPlanCreationFailed:      "the audit was saved but its CAPA plan could not be created",
	NonConformityCreationFailed: "the non-conformity could not be created",
	InitialActionCreationFailed: "the non-conformity was saved but its initial corrective action could not be created",
	ActionCreationFailed:        "the action could not be created",
	AttachmentUploadFailed:      "the action was saved but its attachment could not be stored",
	UpdateFailed:                "the changes could not be saved",
	RepairFailed:                "the missing record could not be created",
	ReadFailed:                  "the records could not be loaded",
	InvalidInput:                "the request is invalid",
	AuditNotFound:               "audit not found",
	CapaPlanNotFound:            "CAPA plan not found",
	NonConformityNotFound:       "non-conformity not found",
	ActionNotFound:              "action not found",
}

// WorkflowError reports which step of a workflow failed. ParentPersisted is
// true when the parent record exists even though the operation failed, which
// is the "mandatory child missing" state.
type WorkflowError struct {
	Kind            WorkflowErrorKind
	ParentPersisted bool
	Err             error
}

func newWorkflowError(kind WorkflowErrorKind, err error) *WorkflowError {
	return &WorkflowError{Kind: kind, Err: err}
}

func (e *WorkflowError) Message() string {
	if msg, ok := workflowMessages[e.Kind]; ok {
		return msg
	}
	return string(e.Kind)
}

func (e *WorkflowError) Error() string {
	if e.Err == nil {
		return e.Message()
	}
	return fmt.Sprintf("%s: %v", e.Message(), e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// MandatoryChildMissing reports whether the parent was saved without its
// mandatory child.
func (e *WorkflowError) MandatoryChildMissing() bool {
	return e.ParentPersisted && (e.Kind == CapaPlanCreationFailed || e.Kind == InitialActionCreationFailed)
}

// NotFound reports whether the error is one of the *NotFound kinds.
func (e *WorkflowError) NotFound() bool {
	switch e.Kind {
	case AuditNotFound, CapaPlanNotFound, NonConformityNotFound, ActionNotFound:
		return true
	}
	return false
}

func (e *WorkflowError) Warning() dto.Warning {
	return dto.Warning{Kind: string(e.Kind), Message: e.Message()}
}

// AsWorkflowError unwraps err into a *WorkflowError when it is one.
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr, true
	}
	return nil, false
}
