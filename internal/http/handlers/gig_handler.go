package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixly-app/fixly-backend/internal/dto"
	"github.com/fixly-app/fixly-backend/internal/http/handlers/common"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/service"
)

// GigHandler — HTTP слой типовых услуг мастеров.
type GigHandler struct {
	gigs *service.GigService
}

func NewGigHandler(gigs *service.GigService) *GigHandler {
	return &GigHandler{gigs: gigs}
}

// Create обрабатывает POST /gigs.
func (h *GigHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateGigRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	packages := make([]models.GigPackage, 0, len(req.Packages))
	for _, p := range req.Packages {
		packages = append(packages, models.GigPackage{
			Tier:             p.Tier,
			Title:            p.Title,
			Price:            p.Price,
			DeliveryDays:     p.DeliveryDays,
			RevisionsAllowed: p.RevisionsAllowed,
		})
	}

	gig, err := h.gigs.CreateGig(c.Request.Context(), service.CreateGigInput{
		FixerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Packages:    packages,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, gig)
}

// List обрабатывает GET /gigs — каталог активных услуг.
func (h *GigHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	gigs, err := h.gigs.ListGigs(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gigs)
}

// ListMy обрабатывает GET /gigs/my.
func (h *GigHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	gigs, err := h.gigs.ListMyGigs(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gigs)
}

// Get обрабатывает GET /gigs/:id.
func (h *GigHandler) Get(c *gin.Context) {
	gigID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	gig, err := h.gigs.GetGig(c.Request.Context(), gigID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gig)
}

// SetActive обрабатывает PATCH /gigs/:id/active.
func (h *GigHandler) SetActive(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	gigID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SetGigActiveRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.gigs.SetActive(c.Request.Context(), gigID, userID, req.Active); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "статус услуги обновлён", nil)
}

// OrderPackage обрабатывает POST /packages/:id/order — заказ пакета услуги.
func (h *GigHandler) OrderPackage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	packageID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.gigs.OrderPackage(c.Request.Context(), packageID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, order)
}
