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

// CreateNonConformity stores the NC followed by its initial corrective
// action. Outcomes mirror CreateAudit.
func (s *capaWorkflowService) CreateNonConformity(ctx context.Context, req *dto.CreateNonConformityRequest) (*dto.CreateNonConformityResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, newWorkflowError(InvalidInput, errors.New("title is required"))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rollback, err := s.beginChain(ctx, uow)
	if err != nil {
		return nil, newWorkflowError(NonConformityCreationFailed, err)
	}
	defer rollback()

	plan, err := uow.CapaPlanRepository().FindOne(ctx, specification.ByID{ID: req.CapaPlanId})
	if err != nil {
		return nil, newWorkflowError(NonConformityCreationFailed, err)
	}
	if plan == nil {
		return nil, newWorkflowError(CapaPlanNotFound, nil)
	}

	status := entity.NonConformityStatus(req.Status)
	if status == "" {
		status = entity.NonConformityStatusOpen
	}
	var severity *entity.Severity
	if req.Severity != nil {
		sv := entity.Severity(*req.Severity)
		severity = &sv
	}

	nc := &entity.NonConformity{
		CapaPlanId:  plan.Id,
		Title:       title,
		Description: req.Description,
		Severity:    severity,
		RootCause:   req.RootCause,
		Status:      status,
	}
	if err := uow.NonConformityRepository().Create(ctx, nc); err != nil {
		s.logger.Error("CAPA", "Failed to create non-conformity", map[string]interface{}{"error": err.Error()})
		return nil, newWorkflowError(NonConformityCreationFailed, err)
	}

	action := newInitialCorrectiveAction(nc.Id)
	if err := uow.ActionRepository().Create(ctx, action); err != nil {
		s.logger.Error("CAPA", "Failed to create initial corrective action", map[string]interface{}{
			"non_conformity_id": nc.Id.String(),
			"atomic":            s.atomic,
			"error":             err.Error(),
		})
		if s.atomic {
			return nil, newWorkflowError(InitialActionCreationFailed, err)
		}

		wfErr := &WorkflowError{Kind: InitialActionCreationFailed, ParentPersisted: true, Err: err}
		s.events.PublishNonConformityCreated(ctx, nc, nil)
		s.events.PublishMandatoryChildMissing(ctx, EntityTypeNonConformity, nc.Id, constant.MandatoryChildInitialAction)
		return &dto.CreateNonConformityResponse{
			NonConformity: toNonConformityResponse(nc),
			Warnings:      []dto.Warning{wfErr.Warning()},
		}, wfErr
	}

	if err := s.commitChain(uow); err != nil {
		s.logger.Error("CAPA", "Failed to commit non-conformity", map[string]interface{}{"error": err.Error()})
		return nil, newWorkflowError(NonConformityCreationFailed, err)
	}

	s.logger.Info("CAPA", "Non-conformity created", map[string]interface{}{
		"non_conformity_id": nc.Id.String(),
		"initial_action_id": action.Id.String(),
	})
	s.events.PublishNonConformityCreated(ctx, nc, action)

	return &dto.CreateNonConformityResponse{
		NonConformity: toNonConformityResponse(nc),
		InitialAction: toActionResponse(ctx, action, s.urls),
	}, nil
}

func (s *capaWorkflowService) UpdateNonConformity(ctx context.Context, req *dto.UpdateNonConformityRequest) (*dto.NonConformityResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	nc, err := uow.NonConformityRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, newWorkflowError(UpdateFailed, err)
	}
	if nc == nil {
		return nil, newWorkflowError(NonConformityNotFound, nil)
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, newWorkflowError(InvalidInput, errors.New("title cannot be empty"))
		}
		nc.Title = title
	}
	if req.Description != nil {
		nc.Description = req.Description
	}
	if req.Severity != nil {
		sv := entity.Severity(*req.Severity)
		nc.Severity = &sv
	}
	if req.RootCause != nil {
		nc.RootCause = req.RootCause
	}
	if req.Status != nil {
		nc.Status = entity.NonConformityStatus(*req.Status)
	}

	if err := uow.NonConformityRepository().Update(ctx, nc); err != nil {
		s.logger.Error("CAPA", "Failed to update non-conformity", map[string]interface{}{
			"non_conformity_id": req.Id.String(),
			"error":             err.Error(),
		})
		return nil, newWorkflowError(UpdateFailed, err)
	}

	return toNonConformityResponse(nc), nil
}

// RepairNonConformity creates the initial corrective action when the NC has
// no corrective action at all. The NC row stays locked from the check to the
// insert so concurrent repairs create one action.
func (s *capaWorkflowService) RepairNonConformity(ctx context.Context, nonConformityId uuid.UUID) (*dto.RepairNonConformityResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, newWorkflowError(RepairFailed, err)
	}
	defer func() { _ = uow.Rollback() }()

	nc, err := uow.NonConformityRepository().FindOne(ctx, specification.ByID{ID: nonConformityId}, specification.ForUpdate{})
	if err != nil {
		return nil, newWorkflowError(RepairFailed, err)
	}
	if nc == nil {
		return nil, newWorkflowError(NonConformityNotFound, nil)
	}

	existing, err := uow.ActionRepository().FindOne(ctx,
		specification.ByNonConformityID{NonConformityID: nonConformityId},
		specification.ByActionType{ActionType: string(entity.ActionTypeCorrective)},
	)
	if err != nil {
		return nil, newWorkflowError(RepairFailed, err)
	}
	if existing != nil {
		if err := s.loadAttachments(ctx, uow, existing); err != nil {
			return nil, newWorkflowError(RepairFailed, err)
		}
		if err := uow.Commit(); err != nil {
			return nil, newWorkflowError(RepairFailed, err)
		}
		return &dto.RepairNonConformityResponse{Created: false, Action: toActionResponse(ctx, existing, s.urls)}, nil
	}

	action := newInitialCorrectiveAction(nonConformityId)
	if err := uow.ActionRepository().Create(ctx, action); err != nil {
		s.logger.Error("CAPA", "Failed to repair non-conformity", map[string]interface{}{
			"non_conformity_id": nonConformityId.String(),
			"error":             err.Error(),
		})
		return nil, newWorkflowError(RepairFailed, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, newWorkflowError(RepairFailed, err)
	}

	s.logger.Info("CAPA", "Missing initial corrective action created", map[string]interface{}{
		"non_conformity_id": nonConformityId.String(),
		"action_id":         action.Id.String(),
	})
	s.events.PublishActionCreated(ctx, action)
	return &dto.RepairNonConformityResponse{Created: true, Action: toActionResponse(ctx, action, s.urls)}, nil
}
