package service

import (
	"context"
	"errors"
	"strings"

	"qms-compliance-be/internal/constant"
	"qms-compliance-be/internal/dto"
	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/repository/specification"

	"github.com/google/uuid"
)

// CreateAudit stores the audit and its CAPA plan. In sequential mode a failed
// plan insert returns the saved audit together with a *WorkflowError whose
// ParentPersisted is true.
func (s *capaWorkflowService) CreateAudit(ctx context.Context, req *dto.CreateAuditRequest) (*dto.CreateAuditResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, newWorkflowError(InvalidInput, errors.New("title is required"))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rollback, err := s.beginChain(ctx, uow)
	if err != nil {
		return nil, newWorkflowError(AuditCreationFailed, err)
	}
	defer rollback()

	audit := &entity.Audit{
		Title:       title,
		Description: req.Description,
		AuditDate:   req.AuditDate,
		AuditorId:   req.AuditorId,
	}
	if err := uow.AuditRepository().Create(ctx, audit); err != nil {
		s.logger.Error("CAPA", "Failed to create audit", map[string]interface{}{"error": err.Error()})
		return nil, newWorkflowError(AuditCreationFailed, err)
	}

	plan := &entity.CapaPlan{AuditId: audit.Id}
	if err := uow.CapaPlanRepository().Create(ctx, plan); err != nil {
		s.logger.Error("CAPA", "Failed to create CAPA plan for audit", map[string]interface{}{
			"audit_id": audit.Id.String(),
			"atomic":   s.atomic,
			"error":    err.Error(),
		})
		if s.atomic {
			return nil, newWorkflowError(CapaPlanCreationFailed, err)
		}

		wfErr := &WorkflowError{Kind: CapaPlanCreationFailed, ParentPersisted: true, Err: err}
		s.events.PublishAuditCreated(ctx, audit, nil)
		s.events.PublishMandatoryChildMissing(ctx, EntityTypeAudit, audit.Id, constant.MandatoryChildCapaPlan)
		return &dto.CreateAuditResponse{
			Audit:    toAuditResponse(audit),
			Warnings: []dto.Warning{wfErr.Warning()},
		}, wfErr
	}

	if err := s.commitChain(uow); err != nil {
		s.logger.Error("CAPA", "Failed to commit audit", map[string]interface{}{"error": err.Error()})
		return nil, newWorkflowError(AuditCreationFailed, err)
	}

	s.logger.Info("CAPA", "Audit created", map[string]interface{}{
		"audit_id":     audit.Id.String(),
		"capa_plan_id": plan.Id.String(),
	})
	s.events.PublishAuditCreated(ctx, audit, plan)

	return &dto.CreateAuditResponse{
		Audit:    toAuditResponse(audit),
		CapaPlan: toCapaPlanResponse(plan),
	}, nil
}

// RepairAudit makes sure the audit has its CAPA plan. Calling it again is a no-op.
func (s *capaWorkflowService) RepairAudit(ctx context.Context, auditId uuid.UUID) (*dto.RepairAuditResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	audit, err := uow.AuditRepository().FindOne(ctx, specification.ByID{ID: auditId})
	if err != nil {
		return nil, newWorkflowError(RepairFailed, err)
	}
	if audit == nil {
		return nil, newWorkflowError(AuditNotFound, nil)
	}

	existing, err := uow.CapaPlanRepository().FindOne(ctx, specification.ByAuditID{AuditID: auditId})
	if err != nil {
		return nil, newWorkflowError(RepairFailed, err)
	}
	if existing != nil {
		return &dto.RepairAuditResponse{Created: false, CapaPlan: toCapaPlanResponse(existing)}, nil
	}

	plan := &entity.CapaPlan{AuditId: auditId}
	if err := uow.CapaPlanRepository().Create(ctx, plan); err != nil {
		// audit_id is unique, so a concurrent repair may have won.
		if winner, findErr := uow.CapaPlanRepository().FindOne(ctx, specification.ByAuditID{AuditID: auditId}); findErr == nil && winner != nil {
			return &dto.RepairAuditResponse{Created: false, CapaPlan: toCapaPlanResponse(winner)}, nil
		}
		s.logger.Error("CAPA", "Failed to repair audit", map[string]interface{}{
			"audit_id": auditId.String(),
			"error":    err.Error(),
		})
		return nil, newWorkflowError(RepairFailed, err)
	}

	s.logger.Info("CAPA", "Missing CAPA plan created", map[string]interface{}{
		"audit_id":     auditId.String(),
		"capa_plan_id": plan.Id.String(),
	})
	return &dto.RepairAuditResponse{Created: true, CapaPlan: toCapaPlanResponse(plan)}, nil
}
