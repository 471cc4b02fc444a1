package service

import (
	"context"
	"fmt"

	"qms-compliance-be/internal/constant"
	"qms-compliance-be/internal/pkg/logger"
	pkgEvents "qms-compliance-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type ICapaRepairConsumer interface {
	// Consume subscribes to MANDATORY_CHILD_MISSING on the in-process bus.
	Consume(ctx context.Context) error
	// Handle repairs the parent named by one event.
	Handle(ctx context.Context, event pkgEvents.Event) error
}

type capaRepairConsumer struct {
	subscriber message.Subscriber
	workflow   ICapaWorkflowService
	logger     logger.ILogger
}

func NewCapaRepairConsumer(
	subscriber message.Subscriber,
	workflow ICapaWorkflowService,
	logger logger.ILogger,
) ICapaRepairConsumer {
	return &capaRepairConsumer{
		subscriber: subscriber,
		workflow:   workflow,
		logger:     logger,
	}
}

func (c *capaRepairConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, constant.EventMandatoryChildMissing)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (c *capaRepairConsumer) processMessage(ctx context.Context, msg *message.Message) {
	event, err := pkgEvents.FromMessage(constant.EventMandatoryChildMissing, msg)
	if err != nil {
		c.logger.Error("CAPA_REPAIR", "Dropping unreadable event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	if err := c.Handle(ctx, event); err != nil {
		c.logger.Error("CAPA_REPAIR", "Repair failed", map[string]interface{}{
			"entity_id": event.Payload()["entity_id"],
			"error":     err.Error(),
		})
		// Only storage failures are worth a retry.
		if wfErr, ok := AsWorkflowError(err); ok && wfErr.Kind == RepairFailed {
			msg.Nack()
			return
		}
		msg.Ack()
		return
	}
	msg.Ack()
}

func (c *capaRepairConsumer) Handle(ctx context.Context, event pkgEvents.Event) error {
	payload := event.Payload()
	entityType, _ := payload["entity_type"].(string)
	rawId, _ := payload["entity_id"].(string)

	entityId, err := uuid.Parse(rawId)
	if err != nil {
		return fmt.Errorf("invalid entity_id %q: %w", rawId, err)
	}

	switch entityType {
	case EntityTypeAudit:
		res, err := c.workflow.RepairAudit(ctx, entityId)
		if err != nil {
			return err
		}
		c.logger.Info("CAPA_REPAIR", "Audit checked", map[string]interface{}{
			"audit_id": entityId.String(),
			"created":  res.Created,
		})
	case EntityTypeNonConformity:
		res, err := c.workflow.RepairNonConformity(ctx, entityId)
		if err != nil {
			return err
		}
		c.logger.Info("CAPA_REPAIR", "Non-conformity checked", map[string]interface{}{
			"non_conformity_id": entityId.String(),
			"created":           res.Created,
		})
	default:
		return fmt.Errorf("unknown entity type %q", entityType)
	}
	return nil
}
