package handlers

import (
	"net/http"

	"github.com/Dosada05/fitarena-system/services"
)

// AdminHandler - ручные триггеры фоновых задач. Планировщик гоняет их по
// расписанию, но при инцидентах удобно дёрнуть руками.
type AdminHandler struct {
	maintenanceService services.MaintenanceService
}

func NewAdminHandler(ms services.MaintenanceService) *AdminHandler {
	return &AdminHandler{maintenanceService: ms}
}

// RollForwardHandler обрабатывает POST /admin/maintenance/roll-forward:
// завершает активные соревнования с истёкшей датой и запускает выплаты.
func (h *AdminHandler) RollForwardHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.maintenanceService.RollForwardStatuses(r.Context()); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SweepDraftsHandler обрабатывает POST /admin/maintenance/sweep-drafts:
// удаляет брошенные черновики старше настроенного срока.
func (h *AdminHandler) SweepDraftsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.maintenanceService.SweepStaleDrafts(r.Context()); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
