package service

import (
	"context"
	"time"

	"qms-compliance-be/internal/dto"
	"qms-compliance-be/internal/entity"
	"qms-compliance-be/pkg/storage"
)

func toAuditResponse(a *entity.Audit) *dto.AuditResponse {
	if a == nil {
		return nil
	}
	return &dto.AuditResponse{
		Id:          a.Id,
		Title:       a.Title,
		Description: a.Description,
		AuditDate:   a.AuditDate,
		AuditorId:   a.AuditorId,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toCapaPlanResponse(p *entity.CapaPlan) *dto.CapaPlanResponse {
	if p == nil {
		return nil
	}
	return &dto.CapaPlanResponse{
		Id:          p.Id,
		AuditId:     p.AuditId,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toNonConformityResponse(n *entity.NonConformity) *dto.NonConformityResponse {
	if n == nil {
		return nil
	}
	var severity *string
	if n.Severity != nil {
		s := string(*n.Severity)
		severity = &s
	}
	return &dto.NonConformityResponse{
		Id:          n.Id,
		CapaPlanId:  n.CapaPlanId,
		Title:       n.Title,
		Description: n.Description,
		Severity:    severity,
		RootCause:   n.RootCause,
		Status:      string(n.Status),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

// attachmentURLs resolves download links; a nil store leaves them empty.
type attachmentURLs struct {
	store  storage.ObjectStore
	expiry time.Duration
}

func (u attachmentURLs) resolve(ctx context.Context, objectPath string) string {
	if u.store == nil {
		return ""
	}
	url, err := u.store.URL(ctx, objectPath, u.expiry)
	if err != nil {
		return ""
	}
	return url
}

func toActionResponse(ctx context.Context, a *entity.Action, urls attachmentURLs) *dto.ActionResponse {
	if a == nil {
		return nil
	}
	attachments := make([]*dto.ActionAttachmentResponse, 0, len(a.Attachments))
	for _, att := range a.Attachments {
		attachments = append(attachments, &dto.ActionAttachmentResponse{
			Id:         att.Id,
			ActionId:   att.ActionId,
			BucketId:   att.BucketId,
			ObjectPath: att.ObjectPath,
			FileName:   att.FileName,
			URL:        urls.resolve(ctx, att.ObjectPath),
			CreatedAt:  att.CreatedAt,
		})
	}
	return &dto.ActionResponse{
		Id:              a.Id,
		NonConformityId: a.NonConformityId,
		ActionType:      string(a.ActionType),
		Description:     a.Description,
		ResponsibleId:   a.ResponsibleId,
		DueDate:         a.DueDate,
		Status:          string(a.Status),
		Attachments:     attachments,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
