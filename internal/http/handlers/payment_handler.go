package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixly-app/fixly-backend/internal/dto"
	"github.com/fixly-app/fixly-backend/internal/http/handlers/common"
	"github.com/fixly-app/fixly-backend/internal/http/middleware"
	"github.com/fixly-app/fixly-backend/internal/service"
)

// PaymentHandler — HTTP слой escrow и расчётов.
type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// GetEscrow обрабатывает GET /orders/:id/escrow.
func (h *PaymentHandler) GetEscrow(c *gin.Context) {
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

	escrow, err := h.payments.GetEscrow(c.Request.Context(), orderID, userID, middleware.IsAdmin(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, escrow)
}

// SettleAllForFixer обрабатывает POST /admin/fixers/:id/settle-all —
// массовый расчёт по всем оплаченным заказам мастера.
func (h *PaymentHandler) SettleAllForFixer(c *gin.Context) {
	fixerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	orders, err := h.payments.SettleAllForFixer(c.Request.Context(), fixerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, orders)
}

// ListHeld обрабатывает GET /admin/escrows.
func (h *PaymentHandler) ListHeld(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	escrows, err := h.payments.ListHeld(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, escrows)
}

// Release обрабатывает POST /admin/orders/:id/escrow/release.
func (h *PaymentHandler) Release(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.payments.ReleaseToFixer(c.Request.Context(), orderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, escrow)
}

// Refund обрабатывает POST /admin/orders/:id/escrow/refund.
func (h *PaymentHandler) Refund(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.payments.RefundToClient(c.Request.Context(), orderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, escrow)
}

// Split обрабатывает POST /admin/orders/:id/escrow/split.
func (h *PaymentHandler) Split(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SplitEscrowRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.payments.Split(c.Request.Context(), orderID, req.RefundAmount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, escrow)
}
