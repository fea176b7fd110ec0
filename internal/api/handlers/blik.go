// Package handlers implements the gin route handlers. Each handler is thin:
// parse the request, call one application service, map the result or error.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mkret/firefly-enricher/internal/api/dto"
	"github.com/mkret/firefly-enricher/internal/apperr"
	"github.com/mkret/firefly-enricher/internal/application/blik"
)

// BlikHandler serves the BLIK CSV flow.
type BlikHandler struct {
	svc *blik.Service
}

// NewBlikHandler creates the handler.
func NewBlikHandler(svc *blik.Service) *BlikHandler {
	return &BlikHandler{svc: svc}
}

// Register mounts the BLIK routes.
func (h *BlikHandler) Register(r gin.IRouter) {
	files := r.Group("/blik/files")
	{
		files.POST("", h.upload)
		files.GET("/:id/preview", h.preview)
		files.POST("/:id/matches", h.computeMatches)
		files.GET("/:id/matches", h.matches)
		files.POST("/:id/apply", h.apply)
		files.DELETE("/:id", h.remove)
	}
	r.GET("/blik/statistics", h.statistics)
	r.POST("/blik/statistics/refresh", h.refreshStatistics)
}

func (h *BlikHandler) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "missing file field"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unreadable file"})
		return
	}
	defer f.Close()

	id, records, err := h.svc.Upload(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.UploadResponse{ID: id.String(), Records: records})
}

func (h *BlikHandler) preview(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	records, err := h.svc.Preview(c.Request.Context(), id, limit)
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}

	out := make([]dto.BankRecord, 0, len(records))
	for _, record := range records {
		out = append(out, dto.FromBankRecord(record))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BlikHandler) computeMatches(c *gin.Context) {
	id, ok := fileID(c)
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

func (h *BlikHandler) matches(c *gin.Context) {
	id, ok := fileID(c)
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

func (h *BlikHandler) apply(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}

	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	report, err := h.svc.Apply(c.Request.Context(), id, req.TransactionIDs)
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *BlikHandler) remove(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}

	if err := h.svc.Remove(id); err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BlikHandler) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Statistics())
}

func (h *BlikHandler) refreshStatistics(c *gin.Context) {
	c.JSON(http.StatusAccepted, h.svc.RefreshStatistics(c.Request.Context()))
}

func fileID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		status, body := dto.MapError(apperr.ErrInvalidFileID)
		c.JSON(status, body)
		return uuid.Nil, false
	}
	return id, true
}
