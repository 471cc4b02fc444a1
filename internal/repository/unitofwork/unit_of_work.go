package unitofwork

import (
	"context"

	"qms-compliance-be/internal/repository/contract"
)

// UnitOfWork hands out repositories bound to the same transaction once Begin
// has been called, and to the plain connection otherwise.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AuditRepository() contract.AuditRepository
	CapaPlanRepository() contract.CapaPlanRepository
	NonConformityRepository() contract.NonConformityRepository
	ActionRepository() contract.ActionRepository
	ActionAttachmentRepository() contract.ActionAttachmentRepository
}
