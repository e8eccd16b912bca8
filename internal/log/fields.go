package log

import "fintrack/internal/core"

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldSubcomponent = "subcomponent"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldRef          = "ref"
	FieldID           = "id"
	FieldDate         = "date"
	FieldAmount       = "amount"
	FieldCategory     = "category"
	FieldStart        = "start"
	FieldEnd          = "end"
	FieldCount        = "count"
	FieldBackend      = "backend"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
	ComponentConfig  = "config"
)

// Operations defines standard operation names
const (
	OpInitialize = "initialize"
	OpRecord     = "record"
	OpView       = "view"
	OpPlot       = "plot"
	OpPublish    = "publish"
	OpMirror     = "mirror"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithTransaction adds date, amount and category. Descriptions stay out
// of logs.
func (f LogFields) WithTransaction(t core.Transaction) LogFields {
	f[FieldDate] = t.Date.String()
	f[FieldAmount] = core.FormatAmount(t.Amount)
	f[FieldCategory] = t.Category.String()
	return f
}

// WithRange adds an inclusive date range.
func (f LogFields) WithRange(start, end core.Date) LogFields {
	f[FieldStart] = start.String()
	f[FieldEnd] = end.String()
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
