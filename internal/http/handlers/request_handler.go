package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixly-app/fixly-backend/internal/dto"
	"github.com/fixly-app/fixly-backend/internal/http/handlers/common"
	"github.com/fixly-app/fixly-backend/internal/service"
)

// RequestHandler — HTTP слой заявок клиентов на разовую работу.
type RequestHandler struct {
	requests *service.RequestService
}

func NewRequestHandler(requests *service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// Create обрабатывает POST /requests.
func (h *RequestHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateRequestRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	neighborhoodID, err := req.ParseNeighborhoodID()
	if err != nil {
		common.RespondBadRequest(c, "неверный формат идентификатора района")
		return
	}

	request, err := h.requests.CreateRequest(c.Request.Context(), service.CreateRequestInput{
		ClientID:       userID,
		NeighborhoodID: neighborhoodID,
		Title:          req.Title,
		Description:    req.Description,
		BudgetMin:      req.BudgetMin,
		BudgetMax:      req.BudgetMax,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, request)
}

// ListOpen обрабатывает GET /requests — открытые заявки для мастеров.
func (h *RequestHandler) ListOpen(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	requests, err := h.requests.ListOpenRequests(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, requests)
}

// ListMy обрабатывает GET /requests/my.
func (h *RequestHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	requests, err := h.requests.ListMyRequests(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, requests)
}

// Get обрабатывает GET /requests/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	request, err := h.requests.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, request)
}

// Cancel обрабатывает POST /requests/:id/cancel.
func (h *RequestHandler) Cancel(c *gin.Context) {
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

	if err := h.requests.CancelRequest(c.Request.Context(), requestID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "заявка отменена", nil)
}
