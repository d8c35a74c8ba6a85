package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/dto"
	"github.com/fixly-app/fixly-backend/internal/http/handlers/common"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/service"
)

// AgentHandler — HTTP слой агентской программы.
type AgentHandler struct {
	agents *service.AgentService
}

func NewAgentHandler(agents *service.AgentService) *AgentHandler {
	return &AgentHandler{agents: agents}
}

// Apply обрабатывает POST /agents/apply.
func (h *AgentHandler) Apply(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.AgentApplyRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	neighborhoodIDs, err := req.ParseNeighborhoodIDs()
	if err != nil {
		common.RespondBadRequest(c, "неверный формат идентификаторов районов")
		return
	}

	agent, err := h.agents.Apply(c.Request.Context(), userID, neighborhoodIDs)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, agent)
}

// GetMy обрабатывает GET /agents/my.
func (h *AgentHandler) GetMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	agent, err := h.agents.GetMyAgent(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, agent)
}

// RequestNeighborhoods обрабатывает POST /agents/my/neighborhoods.
func (h *AgentHandler) RequestNeighborhoods(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.AgentApplyRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	neighborhoodIDs, err := req.ParseNeighborhoodIDs()
	if err != nil {
		common.RespondBadRequest(c, "неверный формат идентификаторов районов")
		return
	}

	if err := h.agents.RequestNeighborhoods(c.Request.Context(), userID, neighborhoodIDs); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "районы отправлены на модерацию", nil)
}

// SubmitProfileChanges обрабатывает POST /agents/my/profile-changes.
func (h *AgentHandler) SubmitProfileChanges(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	if err := h.agents.SubmitProfileChanges(c.Request.Context(), userID); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "изменения профиля отправлены на модерацию", nil)
}

// ReferUser обрабатывает POST /agents/referrals.
func (h *AgentHandler) ReferUser(c *gin.Context) {
	agentUserID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.AgentReferralRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	referredID, err := uuid.Parse(req.UserID)
	if err != nil {
		common.RespondBadRequest(c, "неверный формат идентификатора пользователя")
		return
	}

	if err := h.agents.ReferUser(c.Request.Context(), agentUserID, referredID, req.Role); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "пользователь привязан к агенту", nil)
}

// ListMyCommissions обрабатывает GET /agents/my/commissions.
func (h *AgentHandler) ListMyCommissions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	commissions, err := h.agents.ListMyCommissions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, commissions)
}

// NeighborhoodsDirectory обрабатывает GET /neighborhoods.
func (h *AgentHandler) NeighborhoodsDirectory(c *gin.Context) {
	neighborhoods, err := h.agents.ListNeighborhoodsDirectory(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, neighborhoods)
}

// ListByStatus обрабатывает GET /admin/agents.
func (h *AgentHandler) ListByStatus(c *gin.Context) {
	status := c.DefaultQuery("status", models.AgentStatusPending)
	limit, offset := common.GetPagination(c)

	agents, err := h.agents.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, agents)
}

// Approve обрабатывает POST /admin/agents/:id/approve.
func (h *AgentHandler) Approve(c *gin.Context) {
	agentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	agent, err := h.agents.Approve(c.Request.Context(), agentID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, agent)
}

// ChangeStatus обрабатывает PATCH /admin/agents/:id/status.
func (h *AgentHandler) ChangeStatus(c *gin.Context) {
	agentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.AgentStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	agent, err := h.agents.ChangeStatus(c.Request.Context(), agentID, req.Status, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusOK, agent)
}

// UpdateCommission обрабатывает PATCH /admin/agents/:id/commission.
func (h *AgentHandler) UpdateCommission(c *gin.Context) {
	agentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.AgentCommissionRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.agents.UpdateCommission(c.Request.Context(), agentID, req.Percentage); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "комиссия обновлена", nil)
}

// ApproveNeighborhoods обрабатывает POST /admin/agents/:id/neighborhoods/approve.
func (h *AgentHandler) ApproveNeighborhoods(c *gin.Context) {
	agentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.AgentApplyRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	neighborhoodIDs, err := req.ParseNeighborhoodIDs()
	if err != nil {
		common.RespondBadRequest(c, "неверный формат идентификаторов районов")
		return
	}

	if err := h.agents.ApproveNeighborhoods(c.Request.Context(), agentID, neighborhoodIDs); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "районы утверждены", nil)
}

// ApproveProfileChanges обрабатывает POST /admin/agents/:id/profile-changes/approve.
func (h *AgentHandler) ApproveProfileChanges(c *gin.Context) {
	agentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.agents.ApproveProfileChanges(c.Request.Context(), agentID); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "изменения профиля утверждены", nil)
}
