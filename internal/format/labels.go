package format

import "strings"

// StatusKind selects which status table Status reads from.
type StatusKind string

const (
	StatusGeneral StatusKind = "general"
	StatusPayment StatusKind = "payment"
	StatusLoan    StatusKind = "loan"
)

var paymentMethods = map[string]string{
	"debit_6039": "Brou Débito 6039",
	"debit_2477": "Visa Santander 2477",
	"debit_8475": "Brou Mastercard 8475",
	"debit_3879": "Prex Mastercard UY",
	"cash":       "Efectivo",
	"transfer":   "Transferencia",
}

var accountNames = map[string]string{
	"6039": "Brou Débito 6039",
	"2477": "Visa Santander 2477",
	"8475": "Brou Mastercard 8475",
	"3879": "Prex Mastercard UY",
}

var holderNames = map[string]string{
	"IGNACIO":   "Ignacio",
	"LAFIO":     "Ignacio",
	"LOVIO":     "Ignacio",
	"NACHO":     "Ignacio",
	"YENNIFFER": "Yenniffer",
	"YENNI":     "Yenniffer",
	"LOVIA":     "Yenniffer",
}

var statuses = map[StatusKind]map[string]string{
	StatusGeneral: {
		"active":   "Activo",
		"inactive": "Inactivo",
		"pending":  "Pendiente",
	},
	StatusPayment: {
		"paid":    "Pagado",
		"pending": "Pendiente",
		"late":    "Atrasado",
	},
	StatusLoan: {
		"active":    "Activo",
		"completed": "Completado",
		"cancelled": "Cancelado",
	},
}

func PaymentMethod(method string) string {
	return lookup(paymentMethods, method)
}

func AccountName(accountID string) string {
	return lookup(accountNames, accountID)
}

// HolderName maps any holder alias, in any case, to its display name.
func HolderName(holder string) string {
	if name, ok := holderNames[strings.ToUpper(holder)]; ok {
		return name
	}
	return holder
}

func Status(status string, kind StatusKind) string {
	table, ok := statuses[kind]
	if !ok {
		return status
	}
	return lookup(table, status)
}

func lookup(table map[string]string, code string) string {
	if label, ok := table[code]; ok {
		return label
	}
	return code
}
