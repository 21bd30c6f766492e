package payroll

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the payroll endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.ListEmployees)
		r.Post("/", h.CreateEmployee)
		r.Get("/{id}", h.ShowEmployee)
		r.Put("/{id}", h.UpdateEmployee)
		r.Delete("/{id}", h.DeleteEmployee)

		r.Get("/{id}/wage", h.CalculateWage)
		r.Post("/{id}/mark-paid", h.MarkAsPaid)
		r.Get("/{id}/bonus", h.CalculateBonus)
		r.Post("/{id}/bonus/mark-paid", h.MarkBonusPaid)

		r.Get("/{id}/attendance", h.ListAttendance)
		r.Post("/{id}/attendance", h.AddAttendance)
		r.Delete("/{id}/attendance/{attendanceID}", h.DeleteAttendance)
	})
}
