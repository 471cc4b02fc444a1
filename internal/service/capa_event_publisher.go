package service

import (
	"context"

	"qms-compliance-be/internal/constant"
	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/pkg/logger"
	pkgEvents "qms-compliance-be/pkg/events"

	"github.com/google/uuid"
)

const (
	EntityTypeAudit         = "audit"
	EntityTypeNonConformity = "non_conformity"
)

// ICapaEventPublisher emits workflow events. Publishing never fails the
// caller; errors are logged.
type ICapaEventPublisher interface {
	PublishAuditCreated(ctx context.Context, audit *entity.Audit, plan *entity.CapaPlan)
	PublishNonConformityCreated(ctx context.Context, nc *entity.NonConformity, initialAction *entity.Action)
	PublishActionCreated(ctx context.Context, action *entity.Action)
	PublishMandatoryChildMissing(ctx context.Context, entityType string, entityId uuid.UUID, child string)
}

type capaEventPublisher struct {
	publisher pkgEvents.Publisher
	logger    logger.ILogger
}

func NewCapaEventPublisher(publisher pkgEvents.Publisher, logger logger.ILogger) ICapaEventPublisher {
	if publisher == nil {
		publisher = pkgEvents.NopPublisher
	}
	return &capaEventPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *capaEventPublisher) PublishAuditCreated(ctx context.Context, audit *entity.Audit, plan *entity.CapaPlan) {
	data := map[string]interface{}{
		"audit_id":    audit.Id.String(),
		"title":       audit.Title,
		"entity_type": EntityTypeAudit,
		"entity_id":   audit.Id.String(),
	}
	if plan != nil {
		data["capa_plan_id"] = plan.Id.String()
	}
	p.publish(ctx, constant.EventAuditCreated, data)
}

func (p *capaEventPublisher) PublishNonConformityCreated(ctx context.Context, nc *entity.NonConformity, initialAction *entity.Action) {
	data := map[string]interface{}{
		"non_conformity_id": nc.Id.String(),
		"capa_plan_id":      nc.CapaPlanId.String(),
		"title":             nc.Title,
		"entity_type":       EntityTypeNonConformity,
		"entity_id":         nc.Id.String(),
	}
	if initialAction != nil {
		data["initial_action_id"] = initialAction.Id.String()
	}
	p.publish(ctx, constant.EventNonConformityCreated, data)
}

func (p *capaEventPublisher) PublishActionCreated(ctx context.Context, action *entity.Action) {
	p.publish(ctx, constant.EventActionCreated, map[string]interface{}{
		"action_id":         action.Id.String(),
		"non_conformity_id": action.NonConformityId.String(),
		"action_type":       string(action.ActionType),
		"status":            string(action.Status),
		"attachment_count":  len(action.Attachments),
		"entity_type":       "action",
		"entity_id":         action.Id.String(),
	})
}

func (p *capaEventPublisher) PublishMandatoryChildMissing(ctx context.Context, entityType string, entityId uuid.UUID, child string) {
	p.publish(ctx, constant.EventMandatoryChildMissing, map[string]interface{}{
		"entity_type": entityType,
		"entity_id":   entityId.String(),
		"child":       child,
	})
}

func (p *capaEventPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := p.publisher.Publish(ctx, pkgEvents.NewEvent(eventType, data)); err != nil {
		p.logger.Error("CAPA", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}
