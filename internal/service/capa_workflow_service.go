package service

import (
	"context"
	"io"
	"time"

	"qms-compliance-be/internal/constant"
	"qms-compliance-be/internal/dto"
	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/pkg/logger"
	"qms-compliance-be/internal/repository/specification"
	"qms-compliance-be/internal/repository/unitofwork"
	"qms-compliance-be/pkg/storage"

	"github.com/google/uuid"
)

// FileUpload is an attachment handed over by the transport layer.
type FileUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type ICapaWorkflowService interface {
	CreateAudit(ctx context.Context, req *dto.CreateAuditRequest) (*dto.CreateAuditResponse, error)
	CreateNonConformity(ctx context.Context, req *dto.CreateNonConformityRequest) (*dto.CreateNonConformityResponse, error)
	UpdateNonConformity(ctx context.Context, req *dto.UpdateNonConformityRequest) (*dto.NonConformityResponse, error)
	CreateAction(ctx context.Context, req *dto.CreateActionRequest, attachment *FileUpload) (*dto.CreateActionResponse, error)
	UpdateAction(ctx context.Context, req *dto.UpdateActionRequest) (*dto.ActionResponse, error)
	UpdateActionStatus(ctx context.Context, req *dto.UpdateActionStatusRequest) (*dto.ActionResponse, error)
	RepairAudit(ctx context.Context, auditId uuid.UUID) (*dto.RepairAuditResponse, error)
	RepairNonConformity(ctx context.Context, nonConformityId uuid.UUID) (*dto.RepairNonConformityResponse, error)
}

type CapaWorkflowOptions struct {
	// AtomicChains writes Audit+CapaPlan and NonConformity+Action in one
	// transaction. When false the writes are sequential and a failed child
	// leaves the parent in place.
	AtomicChains bool
	// AttachmentURLExpiry is how long attachment download links stay valid.
	AttachmentURLExpiry time.Duration
}

type capaWorkflowService struct {
	uowFactory unitofwork.RepositoryFactory
	store      storage.ObjectStore
	events     ICapaEventPublisher
	logger     logger.ILogger
	atomic     bool
	urls       attachmentURLs
}

func NewCapaWorkflowService(
	uowFactory unitofwork.RepositoryFactory,
	store storage.ObjectStore,
	events ICapaEventPublisher,
	logger logger.ILogger,
	opts CapaWorkflowOptions,
) ICapaWorkflowService {
	return &capaWorkflowService{
		uowFactory: uowFactory,
		store:      store,
		events:     events,
		logger:     logger,
		atomic:     opts.AtomicChains,
		urls:       attachmentURLs{store: store, expiry: opts.AttachmentURLExpiry},
	}
}

// beginChain opens a transaction when chains are atomic. The returned func
// rolls back if the chain was not committed and is safe to defer.
func (s *capaWorkflowService) beginChain(ctx context.Context, uow unitofwork.UnitOfWork) (func(), error) {
	if !s.atomic {
		return func() {}, nil
	}
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	return func() { _ = uow.Rollback() }, nil
}

func (s *capaWorkflowService) commitChain(uow unitofwork.UnitOfWork) error {
	if !s.atomic {
		return nil
	}
	return uow.Commit()
}

func (s *capaWorkflowService) loadAttachments(ctx context.Context, uow unitofwork.UnitOfWork, action *entity.Action) error {
	attachments, err := uow.ActionAttachmentRepository().FindAll(ctx, specification.ByActionID{ActionID: action.Id})
	if err != nil {
		return err
	}
	action.Attachments = attachments
	return nil
}

func newInitialCorrectiveAction(nonConformityId uuid.UUID) *entity.Action {
	return &entity.Action{
		NonConformityId: nonConformityId,
		ActionType:      entity.ActionTypeCorrective,
		Description:     constant.InitialCorrectiveActionDescription,
		Status:          entity.ActionStatusOpen,
	}
}
