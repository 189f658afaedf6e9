package core

// Field returns the value of a named field for sorting and filtering list
// views. Names follow the JSON field names; unknown names return nil.
func (a Account) Field(name string) any {
	switch name {
	case "id":
		return a.ID
	case "name":
		return a.Name
	case "bank":
		return a.Bank
	case "number":
		return a.Number
	case "type":
		return a.Type
	case "currency":
		return a.Currency
	case "holder":
		return a.Holder
	case "createdAt":
		return a.CreatedAt
	}
	if v, ok := a.Attributes[name]; ok {
		return v
	}
	return nil
}

func (l Loan) Field(name string) any {
	switch name {
	case "id":
		return l.ID
	case "name":
		return l.Name
	case "owner":
		return l.Owner
	case "account":
		return l.Account
	case "amount":
		return l.Amount
	case "totalAmountToPay":
		return l.TotalAmountToPay
	case "remaining":
		return RemainingBalance(l)
	case "installments":
		return l.Installments
	case "status":
		return string(l.Status)
	case "nextPaymentDate":
		if l.NextPaymentDate != nil {
			return *l.NextPaymentDate
		}
		return nil
	case "createdAt":
		return l.CreatedAt
	}
	return nil
}

func (s Service) Field(name string) any {
	switch name {
	case "id":
		return s.ID
	case "name":
		return s.Name
	case "holder":
		return s.Holder
	case "category":
		return s.Category
	case "price", "uyuEquivalent":
		return s.Price.UYUEquivalent
	case "monthlyAmount":
		return MonthlyAmount(s)
	case "billingCycle":
		return string(s.BillingCycle)
	case "billingDay":
		return s.BillingDay
	case "paymentMethod":
		return s.PaymentMethod
	case "status":
		return string(s.Status)
	case "createdAt":
		return s.CreatedAt
	}
	return nil
}

func (i Income) Field(name string) any {
	switch name {
	case "id":
		return i.ID
	case "holder":
		return i.Holder
	case "source":
		return i.Source
	case "amount":
		return i.Amount
	case "currency":
		return i.Currency
	case "createdAt":
		return i.CreatedAt
	}
	if v, ok := i.Attributes[name]; ok {
		return v
	}
	return nil
}
