package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkret/firefly-enricher/internal/adapters/firefly"
	"github.com/mkret/firefly-enricher/internal/api/dto"
	"github.com/mkret/firefly-enricher/internal/application/enrichment"
	"github.com/mkret/firefly-enricher/internal/application/metrics"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// TxHandler serves the cross-flow transaction surface: backlog statistics,
// screening and manual categorization.
type TxHandler struct {
	backlog   *metrics.Manager[enrichment.BacklogMetrics]
	screening *enrichment.ScreeningService
	ledger    *enrichment.Service
}

// NewTxHandler creates the handler. The backlog manager is built here so
// the handler owns its cache lifetime.
func NewTxHandler(stats *enrichment.StatsService, screening *enrichment.ScreeningService, ledger *enrichment.Service) *TxHandler {
	return &TxHandler{
		backlog:   metrics.NewManager(stats.Backlog),
		screening: screening,
		ledger:    ledger,
	}
}

// Register mounts the transaction routes.
func (h *TxHandler) Register(r gin.IRouter) {
	group := r.Group("/tx")
	{
		group.GET("/statistics", h.statistics)
		group.POST("/statistics/refresh", h.refreshStatistics)
		group.GET("/screening", h.screeningList)
		group.GET("/categories", h.categories)
		group.POST("/:id/category", h.applyCategory)
		group.POST("/:id/tags", h.addTag)
	}
}

func (h *TxHandler) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.backlog.GetState())
}

func (h *TxHandler) refreshStatistics(c *gin.Context) {
	c.JSON(http.StatusAccepted, h.backlog.Refresh(c.Request.Context()))
}

func (h *TxHandler) screeningList(c *gin.Context) {
	txs, err := h.screening.TransactionsForScreening(c.Request.Context(), firefly.FetchOptions{})
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}

	out := make([]dto.Transaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, dto.FromTransaction(tx))
	}
	c.JSON(http.StatusOK, out)
}

func (h *TxHandler) categories(c *gin.Context) {
	categories, err := h.ledger.Categories(c.Request.Context())
	if err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *TxHandler) applyCategory(c *gin.Context) {
	txID, ok := transactionID(c)
	if !ok {
		return
	}

	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.screening.ApplyCategory(c.Request.Context(), txID, req.CategoryID); err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TxHandler) addTag(c *gin.Context) {
	txID, ok := transactionID(c)
	if !ok {
		return
	}

	var req dto.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Tag != ledger.TagActionReq && req.Tag != ledger.TagRulePotential {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unsupported tag"})
		return
	}

	if err := h.screening.AddTag(c.Request.Context(), txID, req.Tag); err != nil {
		c.JSON(dto.MapError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func transactionID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid transaction id"})
		return 0, false
	}
	return id, true
}
