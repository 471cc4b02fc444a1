package controller

import (
	"errors"
	"strings"
	"time"

	"qms-compliance-be/internal/dto"
	"qms-compliance-be/internal/pkg/serverutils"
	"qms-compliance-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const attachmentFormField = "attachment"

type ICapaController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetCollections(ctx *fiber.Ctx) error
	GetAuditView(ctx *fiber.Ctx) error
	GetIntegrity(ctx *fiber.Ctx) error
	CreateAudit(ctx *fiber.Ctx) error
	RepairAudit(ctx *fiber.Ctx) error
	CreateNonConformity(ctx *fiber.Ctx) error
	UpdateNonConformity(ctx *fiber.Ctx) error
	RepairNonConformity(ctx *fiber.Ctx) error
	CreateAction(ctx *fiber.Ctx) error
	UpdateAction(ctx *fiber.Ctx) error
	UpdateActionStatus(ctx *fiber.Ctx) error
}

type capaController struct {
	workflow service.ICapaWorkflowService
	query    service.ICapaQueryService
}

func NewCapaController(workflow service.ICapaWorkflowService, query service.ICapaQueryService) ICapaController {
	return &capaController{
		workflow: workflow,
		query:    query,
	}
}

func (c *capaController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/capa/v1")
	h.Use(auth)

	h.Get("collections", c.GetCollections)
	h.Get("integrity", c.GetIntegrity)

	h.Post("audits", c.CreateAudit)
	h.Get("audits/:id/view", c.GetAuditView)
	h.Post("audits/:id/repair", c.RepairAudit)

	h.Post("non-conformities", c.CreateNonConformity)
	h.Put("non-conformities/:id", c.UpdateNonConformity)
	h.Post("non-conformities/:id/repair", c.RepairNonConformity)

	h.Post("actions", c.CreateAction)
	h.Put("actions/:id", c.UpdateAction)
	h.Patch("actions/:id/status", c.UpdateActionStatus)
}

func (c *capaController) GetCollections(ctx *fiber.Ctx) error {
	res, err := c.query.GetCollections(ctx.UserContext())
	if err != nil {
		return workflowFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get CAPA collections", res))
}

func (c *capaController) GetAuditView(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	res, err := c.query.GetAuditView(ctx.UserContext(), id)
	if err != nil {
		return workflowFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get audit view", res))
}

func (c *capaController) GetIntegrity(ctx *fiber.Ctx) error {
	res, err := c.query.FindIntegrityIssues(ctx.UserContext())
	if err != nil {
		return workflowFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success check CAPA integrity", res))
}

func (c *capaController) CreateAudit(ctx *fiber.Ctx) error {
	var req dto.CreateAuditRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.workflow.CreateAudit(ctx.UserContext(), &req)
	if err != nil {
		return workflowOutcome(ctx, res, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Success create audit", res))
}

func (c *capaController) RepairAudit(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	res, err := c.workflow.RepairAudit(ctx.UserContext(), id)
	if err != nil {
		return workflowFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success repair audit", res))
}

func (c *capaController) CreateNonConformity(ctx *fiber.Ctx) error {
	var req dto.CreateNonConformityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.workflow.CreateNonConformity(ctx.UserContext(), &req)
	if err != nil {
		return workflowOutcome(ctx, res, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Success create non-conformity", res))
}

func (c *capaController) UpdateNonConformity(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateNonConformityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.workflow.UpdateNonConformity(ctx.UserContext(), &req)
	if err != nil {
		return workflowFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update non-conformity", res))
}

func (c *capaController) RepairNonConformity(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	res, err := c.workflow.RepairNonConformity(ctx.UserContext(), id)
	if err != nil {
		return workflowFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success repair non-conformity", res))
}

// CreateAction accepts either JSON or a multipart form carrying an optional
// "attachment" file.
func (c *capaController) CreateAction(ctx *fiber.Ctx) error {
	var req dto.CreateActionRequest
	var upload *service.FileUpload

	if strings.HasPrefix(string(ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		parsed, err := parseActionForm(ctx)
		if err != nil {
			return err
		}
		req = *parsed

		file, err := ctx.FormFile(attachmentFormField)
		if err == nil {
			f, err := file.Open()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Attachment could not be read")
			}
			defer f.Close()
			upload = &service.FileUpload{
				FileName:    file.Filename,
				ContentType: file.Header.Get(fiber.HeaderContentType),
				Size:        file.Size,
				Reader:      f,
			}
		}
	} else if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.workflow.CreateAction(ctx.UserContext(), &req, upload)
	if err != nil {
		return workflowFailure(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Success create action", res))
}

func (c *capaController) UpdateAction(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.workflow.UpdateAction(ctx.UserContext(), &req)
	if err != nil {
		return workflowFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update action", res))
}

func (c *capaController) UpdateActionStatus(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateActionStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.workflow.UpdateActionStatus(ctx.UserContext(), &req)
	if err != nil {
		return workflowFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update action status", res))
}

func pathID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

// parseActionForm reads the multipart fields by hand; the form decoder does
// not know uuid.UUID or time.Time.
func parseActionForm(ctx *fiber.Ctx) (*dto.CreateActionRequest, error) {
	req := &dto.CreateActionRequest{
		ActionType:  ctx.FormValue("action_type"),
		Description: ctx.FormValue("description"),
		Status:      ctx.FormValue("status"),
	}

	if raw := ctx.FormValue("non_conformity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid non_conformity_id")
		}
		req.NonConformityId = id
	}
	if raw := ctx.FormValue("responsible_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid responsible_id")
		}
		req.ResponsibleId = &id
	}
	if raw := ctx.FormValue("due_date"); raw != "" {
		due, err := parseDate(raw)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid due_date")
		}
		req.DueDate = &due
	}
	return req, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// workflowOutcome answers a create call that returned an error. A persisted
// parent is still a created resource, reported with its warnings.
func workflowOutcome(ctx *fiber.Ctx, res interface{}, err error) error {
	if wfErr, ok := service.AsWorkflowError(err); ok && wfErr.ParentPersisted {
		return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse(wfErr.Message(), res))
	}
	return workflowFailure(ctx, err)
}

func workflowFailure(ctx *fiber.Ctx, err error) error {
	var wfErr *service.WorkflowError
	if !errors.As(err, &wfErr) {
		return err
	}

	code := fiber.StatusInternalServerError
	switch {
	case wfErr.NotFound():
		code = fiber.StatusNotFound
	case wfErr.Kind == service.InvalidInput:
		code = fiber.StatusBadRequest
	}
	return ctx.Status(code).JSON(serverutils.TypedErrorResponse(code, string(wfErr.Kind), wfErr.Message()))
}
