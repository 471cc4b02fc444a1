package constant

const (
	InitialCorrectiveActionDescription = "initial corrective action"

	// Attachments live under actions/<action id>/<random name><ext>.
	ActionAttachmentPathPrefix = "actions"

	EventAuditCreated          = "AUDIT_CREATED"
	EventNonConformityCreated  = "NON_CONFORMITY_CREATED"
	EventActionCreated         = "ACTION_CREATED"
	EventMandatoryChildMissing = "MANDATORY_CHILD_MISSING"

	MandatoryChildCapaPlan      = "capa_plan"
	MandatoryChildInitialAction = "initial_corrective_action"
)
