package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldExpenseID   = "expense_id"
	FieldLabel       = "label"
	FieldAmountCents = "amount_cents"
	FieldGroupID     = "group_id"
	FieldCashBookID  = "cash_book_id"
	FieldPlanMonth   = "plan_month"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentReconcile = "reconcile"
	ComponentPlanner   = "planner"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentMirror    = "mirror"
	ComponentCache     = "cache"
	ComponentTrace     = "trace"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSave     = "save"
	OpMirror   = "mirror"
	OpSnapshot = "snapshot"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
