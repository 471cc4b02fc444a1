package mapper

import (
	"time"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/model"
)

type CapaMapper struct{}

func NewCapaMapper() *CapaMapper {
	return &CapaMapper{}
}

func updatedAtPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func updatedAtValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// Audit

func (m *CapaMapper) AuditToEntity(a *model.Audit) *entity.Audit {
	if a == nil {
		return nil
	}
	return &entity.Audit{
		Id:          a.Id,
		Title:       a.Title,
		Description: a.Description,
		AuditDate:   a.AuditDate,
		AuditorId:   a.AuditorId,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   updatedAtPtr(a.UpdatedAt),
	}
}

func (m *CapaMapper) AuditToModel(a *entity.Audit) *model.Audit {
	if a == nil {
		return nil
	}
	return &model.Audit{
		Id:          a.Id,
		Title:       a.Title,
		Description: a.Description,
		AuditDate:   a.AuditDate,
		AuditorId:   a.AuditorId,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   updatedAtValue(a.UpdatedAt),
	}
}

func (m *CapaMapper) AuditsToEntities(audits []*model.Audit) []*entity.Audit {
	entities := make([]*entity.Audit, len(audits))
	for i, a := range audits {
		entities[i] = m.AuditToEntity(a)
	}
	return entities
}

// CapaPlan

func (m *CapaMapper) CapaPlanToEntity(p *model.CapaPlan) *entity.CapaPlan {
	if p == nil {
		return nil
	}
	return &entity.CapaPlan{
		Id:          p.Id,
		AuditId:     p.AuditId,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAtPtr(p.UpdatedAt),
	}
}

func (m *CapaMapper) CapaPlanToModel(p *entity.CapaPlan) *model.CapaPlan {
	if p == nil {
		return nil
	}
	return &model.CapaPlan{
		Id:          p.Id,
		AuditId:     p.AuditId,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   updatedAtValue(p.UpdatedAt),
	}
}

func (m *CapaMapper) CapaPlansToEntities(plans []*model.CapaPlan) []*entity.CapaPlan {
	entities := make([]*entity.CapaPlan, len(plans))
	for i, p := range plans {
		entities[i] = m.CapaPlanToEntity(p)
	}
	return entities
}

// NonConformity

func (m *CapaMapper) NonConformityToEntity(n *model.NonConformity) *entity.NonConformity {
	if n == nil {
		return nil
	}
	var severity *entity.Severity
	if n.Severity != nil {
		s := entity.Severity(*n.Severity)
		severity = &s
	}
	return &entity.NonConformity{
		Id:          n.Id,
		CapaPlanId:  n.CapaPlanId,
		Title:       n.Title,
		Description: n.Description,
		Severity:    severity,
		RootCause:   n.RootCause,
		Status:      entity.NonConformityStatus(n.Status),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   updatedAtPtr(n.UpdatedAt),
	}
}

func (m *CapaMapper) NonConformityToModel(n *entity.NonConformity) *model.NonConformity {
	if n == nil {
		return nil
	}
	var severity *string
	if n.Severity != nil {
		s := string(*n.Severity)
		severity = &s
	}
	return &model.NonConformity{
		Id:          n.Id,
		CapaPlanId:  n.CapaPlanId,
		Title:       n.Title,
		Description: n.Description,
		Severity:    severity,
		RootCause:   n.RootCause,
		Status:      string(n.Status),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   updatedAtValue(n.UpdatedAt),
	}
}

func (m *CapaMapper) NonConformitiesToEntities(ncs []*model.NonConformity) []*entity.NonConformity {
	entities := make([]*entity.NonConformity, len(ncs))
	for i, n := range ncs {
		entities[i] = m.NonConformityToEntity(n)
	}
	return entities
}

// Action

func (m *CapaMapper) ActionToEntity(a *model.Action) *entity.Action {
	if a == nil {
		return nil
	}
	return &entity.Action{
		Id:              a.Id,
		NonConformityId: a.NonConformityId,
		ActionType:      entity.ActionType(a.ActionType),
		Description:     a.Description,
		ResponsibleId:   a.ResponsibleId,
		DueDate:         a.DueDate,
		Status:          entity.ActionStatus(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       updatedAtPtr(a.UpdatedAt),
	}
}

// ActionToModel drops Attachments; they are persisted through their own repository.
func (m *CapaMapper) ActionToModel(a *entity.Action) *model.Action {
	if a == nil {
		return nil
	}
	return &model.Action{
		Id:              a.Id,
		NonConformityId: a.NonConformityId,
		ActionType:      string(a.ActionType),
		Description:     a.Description,
		ResponsibleId:   a.ResponsibleId,
		DueDate:         a.DueDate,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       updatedAtValue(a.UpdatedAt),
	}
}

func (m *CapaMapper) ActionsToEntities(actions []*model.Action) []*entity.Action {
	entities := make([]*entity.Action, len(actions))
	for i, a := range actions {
		entities[i] = m.ActionToEntity(a)
	}
	return entities
}

// ActionAttachment

func (m *CapaMapper) AttachmentToEntity(a *model.ActionAttachment) *entity.ActionAttachment {
	if a == nil {
		return nil
	}
	return &entity.ActionAttachment{
		Id:         a.Id,
		ActionId:   a.ActionId,
		BucketId:   a.BucketId,
		ObjectPath: a.ObjectPath,
		FileName:   a.FileName,
		CreatedAt:  a.CreatedAt,
	}
}

func (m *CapaMapper) AttachmentToModel(a *entity.ActionAttachment) *model.ActionAttachment {
	if a == nil {
		return nil
	}
	return &model.ActionAttachment{
		Id:         a.Id,
		ActionId:   a.ActionId,
		BucketId:   a.BucketId,
		ObjectPath: a.ObjectPath,
		FileName:   a.FileName,
		CreatedAt:  a.CreatedAt,
	}
}

func (m *CapaMapper) AttachmentsToEntities(attachments []*model.ActionAttachment) []*entity.ActionAttachment {
	entities := make([]*entity.ActionAttachment, len(attachments))
	for i, a := range attachments {
		entities[i] = m.AttachmentToEntity(a)
	}
	return entities
}
