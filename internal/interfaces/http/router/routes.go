package router

import (
	"github.com/erp/fincore/internal/interfaces/http/handler"
)

// Handlers groups the HTTP handlers of the API
type Handlers struct {
	Invoices  *handler.InvoiceHandler
	Expenses  *handler.ExpenseHandler
	Customers *handler.CustomerHandler
	Reports   *handler.ReportHandler
	Exports   *handler.ExportHandler
	Sync      *handler.SyncHandler
}

// NewHandlers builds every handler on top of one finance service
func NewHandlers(svc handler.FinanceService) Handlers {
	return Handlers{
		Invoices:  handler.NewInvoiceHandler(svc),
		Expenses:  handler.NewExpenseHandler(svc),
		Customers: handler.NewCustomerHandler(svc),
		Reports:   handler.NewReportHandler(svc),
		Exports:   handler.NewExportHandler(svc),
		Sync:      handler.NewSyncHandler(svc),
	}
}

// resources returns the versioned API, one entry per resource.
func (h Handlers) resources() []resource {
	return []resource{
		resource{prefix: "/dashboard"}.
			get("/stats", h.Reports.DashboardStats),
		resource{prefix: "/invoices"}.
			get("", h.Invoices.List).
			post("", h.Invoices.Create).
			get("/:id", h.Invoices.Get).
			put("/:id", h.Invoices.UpdateItems).
			post("/:id/send", h.Invoices.Send).
			post("/:id/pay", h.Invoices.Pay).
			post("/:id/cancel", h.Invoices.Cancel),
		resource{prefix: "/expenses"}.
			get("", h.Expenses.List).
			post("", h.Expenses.Create).
			put("/:id", h.Expenses.Update),
		resource{prefix: "/customers"}.
			get("", h.Customers.List).
			post("", h.Customers.Create).
			put("/:id", h.Customers.Update),
		resource{prefix: "/reports"}.
			get("/financial", h.Reports.Financial).
			get("/series", h.Reports.Series).
			get("/tax", h.Reports.Tax).
			get("/top-customers", h.Reports.TopCustomers).
			get("/top-items", h.Reports.TopItems),
		resource{prefix: "/exports"}.
			get("/:format", h.Exports.Download).
			post("/:format/archive", h.Exports.Archive),
		resource{prefix: "/sync"}.
			get("/status", h.Sync.Status).
			post("/trigger", h.Sync.Trigger),
	}
}
