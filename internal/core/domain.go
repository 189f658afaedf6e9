package core

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

const (
	LoanActive    LoanStatus = "active"
	LoanCompleted LoanStatus = "completed"
	LoanCancelled LoanStatus = "cancelled"

	ServiceActive   ServiceStatus = "active"
	ServiceInactive ServiceStatus = "inactive"
	ServicePending  ServiceStatus = "pending"

	Monthly BillingCycle = "monthly"
	Annual  BillingCycle = "annual"

	// PaymentTypeAll matches every payment in SumPayments.
	PaymentTypeAll PaymentType = "all"
)

// Payment method codes. Debit methods encode the account they draw from as
// debit_<accountID>.
const (
	DebitPrefix = "debit_"

	MethodDebit6039 = "debit_6039"
	MethodDebit2477 = "debit_2477"
	MethodDebit8475 = "debit_8475"
	MethodDebit3879 = "debit_3879"
	MethodCash      = "cash"
	MethodTransfer  = "transfer"
)

// Id prefixes used by the store when minting identifiers.
const (
	PrefixAccount = "ACC"
	PrefixLoan    = "LOAN"
	PrefixPayment = "PAY"
	PrefixService = "SRV"
	PrefixIncome  = "INC"
)

type (
	LoanStatus    string
	ServiceStatus string
	BillingCycle  string
	PaymentType   string

	Account struct {
		ID         string            `json:"id"`
		Name       string            `json:"name"`
		Bank       string            `json:"bank,omitempty"`
		Number     string            `json:"number,omitempty"`
		Type       string            `json:"type,omitempty"`
		Currency   string            `json:"currency,omitempty"`
		Holder     string            `json:"holder,omitempty"`
		Attributes map[string]string `json:"attributes,omitempty"`
		CreatedAt  time.Time         `json:"createdAt"`
	}

	Loan struct {
		ID               string        `json:"id"`
		Name             string        `json:"name"`
		Owner            string        `json:"owner"`   // free text, matched against holder aliases
		Account          string        `json:"account"` // Account.ID
		Amount           float64       `json:"amount"`  // monthly installment
		TotalAmountToPay float64       `json:"totalAmountToPay"`
		Installments     int           `json:"installments,omitempty"`
		Currency         string        `json:"currency,omitempty"`
		Status           LoanStatus    `json:"status"`
		NextPaymentDate  *time.Time    `json:"nextPaymentDate,omitempty"`
		PaymentHistory   []LoanPayment `json:"paymentHistory"`
		Notes            string        `json:"notes,omitempty"`
		CreatedAt        time.Time     `json:"createdAt"`
	}

	LoanPayment struct {
		ID     string      `json:"id"`
		Amount float64     `json:"amount"`
		Type   PaymentType `json:"type,omitempty"`
		Date   time.Time   `json:"date"`
	}

	Price struct {
		Amount        float64 `json:"amount"`
		Currency      string  `json:"currency,omitempty"`
		UYUEquivalent float64 `json:"uyuEquivalent"`
	}

	Service struct {
		ID            string        `json:"id"`
		Name          string        `json:"name"`
		Holder        string        `json:"holder"`
		Category      string        `json:"category,omitempty"`
		Price         Price         `json:"price"`
		BillingCycle  BillingCycle  `json:"billingCycle"`
		BillingDay    int           `json:"billingDay,omitempty"` // 0 means no projection
		PaymentMethod string        `json:"paymentMethod"`
		Status        ServiceStatus `json:"status"`
		Notes         string        `json:"notes,omitempty"`
		CreatedAt     time.Time     `json:"createdAt"`
	}

	ServicePayment struct {
		ID        string      `json:"id"`
		ServiceID string      `json:"serviceId"`
		Amount    float64     `json:"amount"`
		Type      PaymentType `json:"type,omitempty"`
		Date      time.Time   `json:"date"`
	}

	Income struct {
		ID         string            `json:"id"`
		Holder     string            `json:"holder,omitempty"`
		Source     string            `json:"source,omitempty"`
		Amount     float64           `json:"amount"`
		Currency   string            `json:"currency,omitempty"`
		Attributes map[string]string `json:"attributes,omitempty"`
		CreatedAt  time.Time         `json:"createdAt"`
	}
)

// Patches carry the fields to overwrite on update. Nil fields are left as
// they are; attribute maps merge key by key.
type (
	AccountPatch struct {
		Name       *string
		Bank       *string
		Number     *string
		Type       *string
		Currency   *string
		Holder     *string
		Attributes map[string]string
	}

	LoanPatch struct {
		Name             *string
		Owner            *string
		Account          *string
		Amount           *float64
		TotalAmountToPay *float64
		Installments     *int
		Currency         *string
		Status           *LoanStatus
		NextPaymentDate  *time.Time
		Notes            *string
	}

	ServicePatch struct {
		Name          *string
		Holder        *string
		Category      *string
		Price         *Price
		BillingCycle  *BillingCycle
		BillingDay    *int
		PaymentMethod *string
		Status        *ServiceStatus
		Notes         *string
	}

	IncomePatch struct {
		Holder     *string
		Source     *string
		Amount     *float64
		Currency   *string
		Attributes map[string]string
	}
)

// ErrNotFound is wrapped by every "entity not found" error; check it with
// errors.Is.
var ErrNotFound = errors.New("not found")

var (
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrLoanNotFound    = fmt.Errorf("loan %w", ErrNotFound)
	ErrServiceNotFound = fmt.Errorf("service %w", ErrNotFound)
	ErrIncomeNotFound  = fmt.Errorf("income %w", ErrNotFound)
)

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanActive, LoanCompleted, LoanCancelled:
		return true
	}
	return false
}

func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceActive, ServiceInactive, ServicePending:
		return true
	}
	return false
}

func (c BillingCycle) IsValid() bool {
	return c == Monthly || c == Annual
}

// DebitMethod returns the payment method code for debits from accountID.
func DebitMethod(accountID string) string {
	return DebitPrefix + accountID
}

// AccountFromMethod strips the debit prefix from a payment method code.
func AccountFromMethod(method string) string {
	return strings.Replace(method, DebitPrefix, "", 1)
}

func (a Account) Apply(p AccountPatch) Account {
	setString(&a.Name, p.Name)
	setString(&a.Bank, p.Bank)
	setString(&a.Number, p.Number)
	setString(&a.Type, p.Type)
	setString(&a.Currency, p.Currency)
	setString(&a.Holder, p.Holder)
	a.Attributes = mergeAttributes(a.Attributes, p.Attributes)
	return a
}

func (l Loan) Apply(p LoanPatch) Loan {
	setString(&l.Name, p.Name)
	setString(&l.Owner, p.Owner)
	setString(&l.Account, p.Account)
	setString(&l.Currency, p.Currency)
	setString(&l.Notes, p.Notes)
	if p.Amount != nil {
		l.Amount = *p.Amount
	}
	if p.TotalAmountToPay != nil {
		l.TotalAmountToPay = *p.TotalAmountToPay
	}
	if p.Installments != nil {
		l.Installments = *p.Installments
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.NextPaymentDate != nil {
		t := *p.NextPaymentDate
		l.NextPaymentDate = &t
	}
	return l
}

func (s Service) Apply(p ServicePatch) Service {
	setString(&s.Name, p.Name)
	setString(&s.Holder, p.Holder)
	setString(&s.Category, p.Category)
	setString(&s.PaymentMethod, p.PaymentMethod)
	setString(&s.Notes, p.Notes)
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.BillingCycle != nil {
		s.BillingCycle = *p.BillingCycle
	}
	if p.BillingDay != nil {
		s.BillingDay = *p.BillingDay
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	return s
}

func (i Income) Apply(p IncomePatch) Income {
	setString(&i.Holder, p.Holder)
	setString(&i.Source, p.Source)
	setString(&i.Currency, p.Currency)
	if p.Amount != nil {
		i.Amount = *p.Amount
	}
	i.Attributes = mergeAttributes(i.Attributes, p.Attributes)
	return i
}

// Clone returns a copy that shares no maps, pointers or slices with a.
func (a Account) Clone() Account {
	a.Attributes = maps.Clone(a.Attributes)
	return a
}

// Clone returns a copy that shares no maps, pointers or slices with l.
func (l Loan) Clone() Loan {
	if l.NextPaymentDate != nil {
		t := *l.NextPaymentDate
		l.NextPaymentDate = &t
	}
	if l.PaymentHistory != nil {
		l.PaymentHistory = append(make([]LoanPayment, 0, len(l.PaymentHistory)), l.PaymentHistory...)
	}
	return l
}

// Clone returns a copy that shares no maps, pointers or slices with i.
func (i Income) Clone() Income {
	i.Attributes = maps.Clone(i.Attributes)
	return i
}

func (p LoanPayment) PaymentAmount() float64    { return p.Amount }
func (p LoanPayment) PaymentKind() PaymentType  { return p.Type }
func (p ServicePayment) PaymentAmount() float64 { return p.Amount }
func (p ServicePayment) PaymentKind() PaymentType {
	return p.Type
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func mergeAttributes(base, patch map[string]string) map[string]string {
	if len(patch) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(patch))
	maps.Copy(out, base)
	maps.Copy(out, patch)
	return out
}
