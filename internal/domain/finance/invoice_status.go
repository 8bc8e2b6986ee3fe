package finance

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsStorable reports whether the status may be persisted. Overdue is derived
// at read time and never written.
func (s InvoiceStatus) IsStorable() bool {
	return s.IsValid() && s != InvoiceStatusOverdue
}

// CountsAsRevenue reports whether invoices in this status contribute to revenue
func (s InvoiceStatus) CountsAsRevenue() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusPaid || s == InvoiceStatusOverdue
}

// CanSend returns true if the invoice can be sent
func (s InvoiceStatus) CanSend() bool {
	return s == InvoiceStatusDraft
}

// CanPay returns true if the invoice can be marked paid
func (s InvoiceStatus) CanPay() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusOverdue
}

// CanCancel returns true if the invoice can be cancelled
func (s InvoiceStatus) CanCancel() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusSent || s == InvoiceStatusOverdue
}

// CanEdit returns true if the invoice lines may still change
func (s InvoiceStatus) CanEdit() bool {
	return s == InvoiceStatusDraft
}
