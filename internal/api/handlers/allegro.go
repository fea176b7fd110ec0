package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mkret/firefly-enricher/internal/api/dto"
	"github.com/mkret/firefly-enricher/internal/apperr"
	"github.com/mkret/firefly-enricher/internal/application/allegro"
)

// AllegroHandler serves the marketplace flow.
type AllegroHandler struct {
	svc *allegro.Service
}

// NewAllegroHandler creates the handler.
func NewAllegroHandler(svc *allegro.Service) *AllegroHandler {
	return &AllegroHandler{svc: svc}
}

// Register mounts the Allegro routes.
func (h *AllegroHandler) Register(r gin.IRouter) {
	group := r.Group("/allegro")
	{
		group.GET("/secrets", h.listSecrets)
		group.GET("/payments", h.allPayments)
		group.GET("/secrets/:id/payments", h.payments)
		group.POST("/secrets/:id/matches", h.computeMatches)
		group.GET("/secrets/:id/matches", h.matches)
		group.POST("/secrets/:id/apply", h.startApply)
		group.GET("/apply/:jobID", h.job)
		group.GET("/statistics", h.statistics)
		group.POST("/statistics/refresh", h.refreshStatistics)
	}
}

// applyJobRequest is the body for starting an apply job.
type applyJobRequest struct {
	Decisions []allegro.MatchDecision `json:"decisions" binding:"required"`
}

func (h *AllegroHandler) listSecrets(c *gin.Context) {
	secrets, err := h.svc.ListSecrets(c.Request.Context(), userID(c))
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}

	out := make([]dto.Secret, 0, len(secrets))
	for _, secret := range secrets {
		out = append(out, dto.FromSecret(secret))
	}
	c.JSON(http.StatusOK, out)
}

func (h *AllegroHandler) payments(c *gin.Context) {
	id, ok := secretID(c)
	if !ok {
		return
	}

	login, payments, err := h.svc.FetchPayments(c.Request.Context(), id)
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}

	out := make([]dto.Evidence, 0, len(payments))
	for _, payment := range payments {
		out = append(out, dto.FromEvidence(payment))
	}
	c.JSON(http.StatusOK, gin.H{"login": login, "payments": out})
}

// accountPayments is one account's slice of the batch payments response.
type accountPayments struct {
	SecretID uuid.UUID      `json:"secret_id"`
	Label    string         `json:"label"`
	Login    string         `json:"login,omitempty"`
	Payments []dto.Evidence `json:"payments"`
	Error    string         `json:"error,omitempty"`
}

func (h *AllegroHandler) allPayments(c *gin.Context) {
	accounts, err := h.svc.FetchAllPayments(c.Request.Context(), userID(c))
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}

	out := make([]accountPayments, 0, len(accounts))
	for _, account := range accounts {
		payments := make([]dto.Evidence, 0, len(account.Payments))
		for _, payment := range account.Payments {
			payments = append(payments, dto.FromEvidence(payment))
		}
		out = append(out, accountPayments{
			SecretID: account.SecretID,
			Label:    account.Label,
			Login:    account.Login,
			Payments: payments,
			Error:    account.Err,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *AllegroHandler) computeMatches(c *gin.Context) {
	id, ok := secretID(c)
	if !ok {
		return
	}

	summary, err := h.svc.ComputeMatches(c.Request.Context(), id)
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AllegroHandler) matches(c *gin.Context) {
	id, ok := secretID(c)
	if !ok {
		return
	}

	results, err := h.svc.Results(id)
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.JSON(http.StatusOK, dto.FromMatchResults(results))
}

func (h *AllegroHandler) startApply(c *gin.Context) {
	id, ok := secretID(c)
	if !ok {
		return
	}

	var req applyJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	job, err := h.svc.StartApplyJob(c.Request.Context(), id, req.Decisions)
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (h *AllegroHandler) job(c *gin.Context) {
	id, err := uuid.Parse(c.Param("jobID"))
	if err != nil {
		c.JSON(dto.MapError(apperr.ErrJobNotFound))
		return
	}

	job, err := h.svc.Job(id)
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *AllegroHandler) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Statistics())
}

func (h *AllegroHandler) refreshStatistics(c *gin.Context) {
	c.JSON(http.StatusAccepted, h.svc.RefreshStatistics(c.Request.Context()))
}

func secretID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		status, body := dto.MapError(apperr.ErrInvalidSecretID)
		c.JSON(status, body)
		return uuid.Nil, false
	}
	return id, true
}

// userID resolves the acting user. There is no authentication layer; the
// header exists so a frontend proxy can scope secrets per user.
func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return "default"
}
