package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mkret/firefly-enricher/internal/api/dto"
	"github.com/mkret/firefly-enricher/internal/apperr"
	"github.com/mkret/firefly-enricher/internal/infrastructure/storage"
)

// SecretsHandler serves the secrets CRUD surface.
type SecretsHandler struct {
	repo storage.SecretsRepository
}

// NewSecretsHandler creates the handler.
func NewSecretsHandler(repo storage.SecretsRepository) *SecretsHandler {
	return &SecretsHandler{repo: repo}
}

// Register mounts the secrets routes.
func (h *SecretsHandler) Register(r gin.IRouter) {
	group := r.Group("/secrets")
	{
		group.POST("", h.create)
		group.GET("", h.list)
		group.DELETE("/:id", h.remove)
	}
}

func (h *SecretsHandler) create(c *gin.Context) {
	var req dto.CreateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Type != storage.SecretTypeAllegro {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unsupported secret type"})
		return
	}

	secret := &storage.Secret{
		UserID: userID(c),
		Type:   req.Type,
		Label:  req.Label,
		Value:  req.Value,
	}
	if err := h.repo.Create(c.Request.Context(), secret); err != nil {
		c.JSON(dto.MapError(err))
		return
	}

	c.JSON(http.StatusCreated, dto.FromSecret(secret))
}

func (h *SecretsHandler) list(c *gin.Context) {
	secrets, err := h.repo.ListForUser(c.Request.Context(), userID(c))
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

func (h *SecretsHandler) remove(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(dto.MapError(apperr.ErrInvalidSecretID))
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.Status(http.StatusNoContent)
}
