package stock

import (
	"log/slog"

	recordhandler "fundvault/internal/record/handler"
)

// Handler mounts the stock CRUD surface. Lists filter by kind through the
// kind query parameter.
type Handler struct {
	*recordhandler.Handler
}

// NewHandler wires the stock HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		Handler: recordhandler.New("stocks", service, logger,
			recordhandler.WithFilterFields("kind"),
		),
	}
}
