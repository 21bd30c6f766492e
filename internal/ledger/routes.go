package ledger

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the ledger endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.ShowOrder)
		r.Post("/{id}/status", h.UpdateOrderStatus)
		r.Delete("/{id}", h.DeleteOrder)
		r.Get("/{id}/payments", h.ListPayments)
		r.Post("/{id}/payments", h.AddPayment)
	})
	r.Get("/transactions", h.ListTransactions)
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Get("/{id}", h.ShowCustomer)
		r.Get("/{id}/orders", h.CustomerOrders)
		r.Delete("/{id}", h.DeleteCustomer)
	})
	r.Post("/admin/reconcile", h.Reconcile)
}
