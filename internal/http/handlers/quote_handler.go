package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixly-app/fixly-backend/internal/dto"
	"github.com/fixly-app/fixly-backend/internal/http/handlers/common"
	"github.com/fixly-app/fixly-backend/internal/service"
)

// QuoteHandler — HTTP слой смет мастеров.
type QuoteHandler struct {
	quotes *service.QuoteService
}

func NewQuoteHandler(quotes *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Submit обрабатывает POST /requests/:id/quotes.
func (h *QuoteHandler) Submit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SubmitQuoteRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	quote, err := h.quotes.SubmitQuote(c.Request.Context(), service.SubmitQuoteInput{
		RequestID:          requestID,
		FixerID:            userID,
		Type:               req.Type,
		LaborCost:          req.LaborCost,
		MaterialCost:       req.MaterialCost,
		OtherCosts:         req.OtherCosts,
		InspectionFee:      req.InspectionFee,
		DownPaymentPercent: req.DownPaymentPercent,
		DownPaymentReason:  req.DownPaymentReason,
		IsRevised:          req.IsRevised,
		RevisionsAllowed:   req.RevisionsAllowed,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, quote)
}

// ListForRequest обрабатывает GET /requests/:id/quotes.
func (h *QuoteHandler) ListForRequest(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	quotes, err := h.quotes.ListQuotesForRequest(c.Request.Context(), requestID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, quotes)
}

// ListMy обрабатывает GET /quotes/my.
func (h *QuoteHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	quotes, err := h.quotes.ListMyQuotes(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, quotes)
}

// Get обрабатывает GET /quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	quoteID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	quote, err := h.quotes.GetQuote(c.Request.Context(), quoteID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, quote)
}

// Accept обрабатывает POST /quotes/:id/accept — из сметы рождается заказ.
func (h *QuoteHandler) Accept(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	quoteID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.quotes.AcceptQuote(c.Request.Context(), quoteID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, order)
}
