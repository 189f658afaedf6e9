package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldCollection = "collection"
	FieldEntityID   = "entity_id"
	FieldRevision   = "revision"
	FieldKey        = "snapshot_key"
	FieldBackend    = "backend"
	FieldHolder     = "holder"
	FieldAccount    = "account"
	FieldAmount     = "amount"
	FieldCurrency   = "currency"
	FieldCommand    = "command"
	FieldDuration   = "duration_ms"
	FieldSheetsRef  = "sheets_ref"
	FieldQueue      = "queue"
	FieldExchange   = "exchange"
	FieldMessageID  = "message_id"
	FieldRows       = "rows"
	FieldSuccess    = "success"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentStore   = "store"
	ComponentStorage = "storage"
	ComponentBackend = "backend"
	ComponentViews   = "views"
	ComponentSeed    = "seed"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpSeed     = "seed"
	OpExport   = "export"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error message; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithChange adds the fields describing one committed store mutation.
func (f LogFields) WithChange(collection, op, id string, revision uint64) LogFields {
	f[FieldCollection] = collection
	f[FieldOperation] = op
	f[FieldEntityID] = id
	f[FieldRevision] = revision
	return f
}

func (f LogFields) WithMoney(amount float64, currency string) LogFields {
	f[FieldAmount] = amount
	f[FieldCurrency] = currency
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
