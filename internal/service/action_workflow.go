package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"qms-compliance-be/internal/constant"
	"qms-compliance-be/internal/dto"
	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/repository/specification"
	"qms-compliance-be/internal/repository/unitofwork"
	"qms-compliance-be/pkg/storage"

	"github.com/google/uuid"
)

// CreateAction stores the action and then, best effort, its attachment.
// Attachment problems come back as warnings; the action is kept.
func (s *capaWorkflowService) CreateAction(ctx context.Context, req *dto.CreateActionRequest, attachment *FileUpload) (*dto.CreateActionResponse, error) {
	actionType := entity.ActionType(req.ActionType)
	if !actionType.Valid() {
		return nil, newWorkflowError(InvalidInput, fmt.Errorf("unknown action type %q", req.ActionType))
	}
	status := entity.ActionStatus(req.Status)
	if status == "" {
		status = entity.ActionStatusOpen
	}
	if !status.Valid() {
		return nil, newWorkflowError(InvalidInput, fmt.Errorf("unknown action status %q", req.Status))
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, newWorkflowError(InvalidInput, errors.New("description is required"))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	nc, err := uow.NonConformityRepository().FindOne(ctx, specification.ByID{ID: req.NonConformityId})
	if err != nil {
		return nil, newWorkflowError(ActionCreationFailed, err)
	}
	if nc == nil {
		return nil, newWorkflowError(NonConformityNotFound, nil)
	}

	action := &entity.Action{
		NonConformityId: nc.Id,
		ActionType:      actionType,
		Description:     description,
		ResponsibleId:   req.ResponsibleId,
		DueDate:         req.DueDate,
		Status:          status,
	}
	if err := uow.ActionRepository().Create(ctx, action); err != nil {
		s.logger.Error("CAPA", "Failed to create action", map[string]interface{}{"error": err.Error()})
		return nil, newWorkflowError(ActionCreationFailed, err)
	}
	action.Attachments = []*entity.ActionAttachment{}

	res := &dto.CreateActionResponse{}
	if attachment != nil {
		stored, err := s.storeAttachment(ctx, uow, action.Id, attachment)
		if err != nil {
			wfErr := &WorkflowError{Kind: AttachmentUploadFailed, ParentPersisted: true, Err: err}
			s.logger.Warn("CAPA", "Action saved without its attachment", map[string]interface{}{
				"action_id": action.Id.String(),
				"file_name": attachment.FileName,
				"error":     err.Error(),
			})
			res.Warnings = append(res.Warnings, wfErr.Warning())
		} else {
			action.Attachments = append(action.Attachments, stored)
		}
	}

	s.logger.Info("CAPA", "Action created", map[string]interface{}{
		"action_id":         action.Id.String(),
		"non_conformity_id": nc.Id.String(),
		"attachments":       len(action.Attachments),
	})
	s.events.PublishActionCreated(ctx, action)

	res.Action = toActionResponse(ctx, action, s.urls)
	return res, nil
}

// AttachmentObjectPath builds actions/<action id>/<random name><original ext>.
func AttachmentObjectPath(actionId uuid.UUID, fileName string) string {
	return path.Join(constant.ActionAttachmentPathPrefix, actionId.String(), uuid.New().String()+path.Ext(fileName))
}

func (s *capaWorkflowService) storeAttachment(ctx context.Context, uow unitofwork.UnitOfWork, actionId uuid.UUID, file *FileUpload) (*entity.ActionAttachment, error) {
	if s.store == nil {
		return nil, errors.New("blob storage is not configured")
	}

	objectPath := AttachmentObjectPath(actionId, file.FileName)
	if err := s.store.Upload(ctx, objectPath, file.Reader, file.Size, file.ContentType, storage.UploadOptions{Upsert: false}); err != nil {
		return nil, fmt.Errorf("upload %s: %w", objectPath, err)
	}

	attachment := &entity.ActionAttachment{
		ActionId:   actionId,
		BucketId:   s.store.Bucket(),
		ObjectPath: objectPath,
		FileName:   file.FileName,
	}
	if err := uow.ActionAttachmentRepository().Create(ctx, attachment); err != nil {
		return nil, fmt.Errorf("record attachment %s: %w", objectPath, err)
	}
	return attachment, nil
}

func (s *capaWorkflowService) UpdateAction(ctx context.Context, req *dto.UpdateActionRequest) (*dto.ActionResponse, error) {
	return s.patchAction(ctx, req.Id, func(action *entity.Action) error {
		if req.ActionType != nil {
			actionType := entity.ActionType(*req.ActionType)
			if !actionType.Valid() {
				return fmt.Errorf("unknown action type %q", *req.ActionType)
			}
			action.ActionType = actionType
		}
		if req.Description != nil {
			description := strings.TrimSpace(*req.Description)
			if description == "" {
				return errors.New("description cannot be empty")
			}
			action.Description = description
		}
		if req.ResponsibleId != nil {
			action.ResponsibleId = req.ResponsibleId
		}
		if req.DueDate != nil {
			action.DueDate = req.DueDate
		}
		if req.Status != nil {
			status := entity.ActionStatus(*req.Status)
			if !status.Valid() {
				return fmt.Errorf("unknown action status %q", *req.Status)
			}
			action.Status = status
		}
		return nil
	})
}

// UpdateActionStatus sets any of the four statuses; there is no transition graph.
func (s *capaWorkflowService) UpdateActionStatus(ctx context.Context, req *dto.UpdateActionStatusRequest) (*dto.ActionResponse, error) {
	return s.patchAction(ctx, req.Id, func(action *entity.Action) error {
		status := entity.ActionStatus(req.Status)
		if !status.Valid() {
			return fmt.Errorf("unknown action status %q", req.Status)
		}
		action.Status = status
		return nil
	})
}

func (s *capaWorkflowService) patchAction(ctx context.Context, id uuid.UUID, apply func(*entity.Action) error) (*dto.ActionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	action, err := uow.ActionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, newWorkflowError(UpdateFailed, err)
	}
	if action == nil {
		return nil, newWorkflowError(ActionNotFound, nil)
	}

	if err := apply(action); err != nil {
		return nil, newWorkflowError(InvalidInput, err)
	}

	if err := uow.ActionRepository().Update(ctx, action); err != nil {
		s.logger.Error("CAPA", "Failed to update action", map[string]interface{}{
			"action_id": id.String(),
			"error":     err.Error(),
		})
		return nil, newWorkflowError(UpdateFailed, err)
	}

	if err := s.loadAttachments(ctx, uow, action); err != nil {
		return nil, newWorkflowError(ReadFailed, err)
	}
	return toActionResponse(ctx, action, s.urls), nil
}
