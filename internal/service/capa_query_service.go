package service

import (
	"context"

	"qms-compliance-be/internal/dto"
	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/pkg/logger"
	"qms-compliance-be/internal/repository/unitofwork"
	"qms-compliance-be/pkg/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ICapaQueryService is the read side. Nothing here writes.
type ICapaQueryService interface {
	GetCollections(ctx context.Context) (*dto.CapaCollectionsResponse, error)
	GetAuditView(ctx context.Context, auditId uuid.UUID) (*dto.AuditViewResponse, error)
	FindIntegrityIssues(ctx context.Context) (*dto.IntegrityReportResponse, error)
}

type capaQueryService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	urls       attachmentURLs
}

func NewCapaQueryService(
	uowFactory unitofwork.RepositoryFactory,
	store storage.ObjectStore,
	logger logger.ILogger,
	opts CapaWorkflowOptions,
) ICapaQueryService {
	return &capaQueryService{
		uowFactory: uowFactory,
		logger:     logger,
		urls:       attachmentURLs{store: store, expiry: opts.AttachmentURLExpiry},
	}
}

// GetCollections fetches every table on its own, with no joins. Attachments
// are folded into their actions.
func (s *capaQueryService) GetCollections(ctx context.Context) (*dto.CapaCollectionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	var (
		audits      []*entity.Audit
		plans       []*entity.CapaPlan
		ncs         []*entity.NonConformity
		actions     []*entity.Action
		attachments []*entity.ActionAttachment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		audits, err = uow.AuditRepository().FindAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		plans, err = uow.CapaPlanRepository().FindAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		ncs, err = uow.NonConformityRepository().FindAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		actions, err = uow.ActionRepository().FindAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		attachments, err = uow.ActionAttachmentRepository().FindAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("CAPA", "Failed to load CAPA collections", map[string]interface{}{"error": err.Error()})
		return nil, newWorkflowError(ReadFailed, err)
	}

	byAction := make(map[uuid.UUID][]*entity.ActionAttachment, len(attachments))
	for _, att := range attachments {
		byAction[att.ActionId] = append(byAction[att.ActionId], att)
	}

	res := &dto.CapaCollectionsResponse{
		Audits:          make([]*dto.AuditResponse, 0, len(audits)),
		CapaPlans:       make([]*dto.CapaPlanResponse, 0, len(plans)),
		NonConformities: make([]*dto.NonConformityResponse, 0, len(ncs)),
		Actions:         make([]*dto.ActionResponse, 0, len(actions)),
	}
	for _, a := range audits {
		res.Audits = append(res.Audits, toAuditResponse(a))
	}
	for _, p := range plans {
		res.CapaPlans = append(res.CapaPlans, toCapaPlanResponse(p))
	}
	for _, n := range ncs {
		res.NonConformities = append(res.NonConformities, toNonConformityResponse(n))
	}
	for _, a := range actions {
		a.Attachments = byAction[a.Id]
		res.Actions = append(res.Actions, toActionResponse(ctx, a, s.urls))
	}
	return res, nil
}

func (s *capaQueryService) GetAuditView(ctx context.Context, auditId uuid.UUID) (*dto.AuditViewResponse, error) {
	collections, err := s.GetCollections(ctx)
	if err != nil {
		return nil, err
	}
	view := BuildAuditView(collections, auditId)
	if view == nil {
		return nil, newWorkflowError(AuditNotFound, nil)
	}
	return view, nil
}

func (s *capaQueryService) FindIntegrityIssues(ctx context.Context) (*dto.IntegrityReportResponse, error) {
	collections, err := s.GetCollections(ctx)
	if err != nil {
		return nil, err
	}
	return BuildIntegrityReport(collections), nil
}

// BuildAuditView derives the plan, its NCs and each NC's actions for one
// audit by matching foreign keys. It returns nil when the audit is unknown.
func BuildAuditView(c *dto.CapaCollectionsResponse, auditId uuid.UUID) *dto.AuditViewResponse {
	var audit *dto.AuditResponse
	for _, a := range c.Audits {
		if a.Id == auditId {
			audit = a
			break
		}
	}
	if audit == nil {
		return nil
	}

	view := &dto.AuditViewResponse{
		Audit:           audit,
		NonConformities: make([]*dto.NonConformityViewResponse, 0),
	}
	for _, p := range c.CapaPlans {
		if p.AuditId == auditId {
			view.CapaPlan = p
			break
		}
	}
	if view.CapaPlan == nil {
		view.MissingCapaPlan = true
		return view
	}

	for _, nc := range c.NonConformities {
		if nc.CapaPlanId != view.CapaPlan.Id {
			continue
		}
		ncView := &dto.NonConformityViewResponse{
			NonConformity: nc,
			Actions:       make([]*dto.ActionResponse, 0),
		}
		hasCorrective := false
		for _, a := range c.Actions {
			if a.NonConformityId != nc.Id {
				continue
			}
			ncView.Actions = append(ncView.Actions, a)
			if a.ActionType == string(entity.ActionTypeCorrective) {
				hasCorrective = true
			}
		}
		ncView.MissingInitialAction = !hasCorrective
		view.NonConformities = append(view.NonConformities, ncView)
	}
	return view
}

// BuildIntegrityReport lists parents whose mandatory child is missing.
func BuildIntegrityReport(c *dto.CapaCollectionsResponse) *dto.IntegrityReportResponse {
	report := &dto.IntegrityReportResponse{
		AuditsWithoutCapaPlan:                  make([]uuid.UUID, 0),
		NonConformitiesWithoutCorrectiveAction: make([]uuid.UUID, 0),
	}

	planned := make(map[uuid.UUID]bool, len(c.CapaPlans))
	for _, p := range c.CapaPlans {
		planned[p.AuditId] = true
	}
	for _, a := range c.Audits {
		if !planned[a.Id] {
			report.AuditsWithoutCapaPlan = append(report.AuditsWithoutCapaPlan, a.Id)
		}
	}

	corrected := make(map[uuid.UUID]bool, len(c.NonConformities))
	for _, a := range c.Actions {
		if a.ActionType == string(entity.ActionTypeCorrective) {
			corrected[a.NonConformityId] = true
		}
	}
	for _, nc := range c.NonConformities {
		if !corrected[nc.Id] {
			report.NonConformitiesWithoutCorrectiveAction = append(report.NonConformitiesWithoutCorrectiveAction, nc.Id)
		}
	}
	return report
}
