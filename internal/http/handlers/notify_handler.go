// README: Car-group notification handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rally/internal/http/middleware"
	"rally/internal/modules/notify"
	"rally/internal/types"
)

type NotifyHandler struct {
	notifier *notify.Service
}

func NewNotifyHandler(svc *notify.Service) *NotifyHandler {
	return &NotifyHandler{notifier: svc}
}

// NotifyCarGroup fans out "ready to leave" notifications to the caller's car
// group. Best effort: dedup and empty-group outcomes are 200s, not errors.
func (h *NotifyHandler) NotifyCarGroup(c *gin.Context) {
	res, err := h.notifier.NotifyCarGroup(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeNotifyError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}
