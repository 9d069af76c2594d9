package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldMonth       = "month"
	FieldKind        = "kind"
	FieldPocketID    = "pocket_id"
	FieldTxID        = "transaction_id"
	FieldAmount      = "amount"
	FieldIssues      = "issues"
	FieldBackend     = "backend"
	FieldSheetsRange = "sheets_range"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentReconcile = "reconcile"
	ComponentSheets    = "sheets"
	ComponentRates     = "rates"
	ComponentCache     = "cache"
	ComponentSeed      = "seed"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpArchive   = "archive"
	OpReconcile = "reconcile"
	OpExport    = "export"
	OpSeed      = "seed"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMonth adds the month key field
func (f LogFields) WithMonth(month string) LogFields {
	f[FieldMonth] = month
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(kind, month, id string, amount int64) LogFields {
	f[FieldKind] = kind
	f[FieldMonth] = month
	f[FieldTxID] = id
	f[FieldAmount] = amount
	return f
}

// WithPocket adds the pocket id field
func (f LogFields) WithPocket(id string) LogFields {
	f[FieldPocketID] = id
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
