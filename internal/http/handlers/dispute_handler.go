package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixly-app/fixly-backend/internal/dto"
	"github.com/fixly-app/fixly-backend/internal/http/handlers/common"
	"github.com/fixly-app/fixly-backend/internal/http/middleware"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/service"
)

// DisputeHandler — HTTP слой споров по заказам.
type DisputeHandler struct {
	disputes *service.DisputeService
}

func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// Open обрабатывает POST /orders/:id/disputes.
func (h *DisputeHandler) Open(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.OpenDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.OpenDispute(c.Request.Context(), service.OpenDisputeInput{
		OrderID:     orderID,
		InitiatorID: userID,
		Reason:      req.Reason,
		Description: req.Description,
		Evidence:    req.Evidence,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dispute)
}

// Get обрабатывает GET /disputes/:id.
func (h *DisputeHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.GetDispute(c.Request.Context(), disputeID, userID, middleware.IsAdmin(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dispute)
}

// ListMy обрабатывает GET /disputes/my.
func (h *DisputeHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	disputes, err := h.disputes.ListMyDisputes(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, disputes)
}

// ListMessages обрабатывает GET /disputes/:id/messages.
func (h *DisputeHandler) ListMessages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	messages, err := h.disputes.ListMessages(c.Request.Context(), disputeID, userID, middleware.IsAdmin(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, messages)
}

// AddMessage обрабатывает POST /disputes/:id/messages.
func (h *DisputeHandler) AddMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.DisputeMessageRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.disputes.AddMessage(
		c.Request.Context(),
		disputeID,
		userID,
		req.Message,
		middleware.IsAdmin(c),
		req.IsAdminNote,
	)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, message)
}

// ListByStatus обрабатывает GET /admin/disputes.
func (h *DisputeHandler) ListByStatus(c *gin.Context) {
	status := c.DefaultQuery("status", models.DisputeStatusOpen)
	limit, offset := common.GetPagination(c)

	disputes, err := h.disputes.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, disputes)
}

// UpdateStatus обрабатывает PATCH /admin/disputes/:id/status.
func (h *DisputeHandler) UpdateStatus(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateDisputeStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.UpdateStatus(c.Request.Context(), disputeID, adminID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dispute)
}

// Resolve обрабатывает POST /admin/disputes/:id/resolve.
func (h *DisputeHandler) Resolve(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ResolveDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.disputes.Resolve(c.Request.Context(), service.ResolveInput{
		DisputeID:    disputeID,
		AdminID:      adminID,
		Status:       req.Status,
		Resolution:   req.Resolution,
		RefundAmount: req.RefundAmount,
		ReleaseTo:    req.ReleaseTo,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dispute)
}
