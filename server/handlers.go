package server

import (
	"context"
	"net/http"
	"strconv"

	"trade-lab/domain"
	"trade-lab/internal"
	"trade-lab/observability"
	"trade-lab/services"

	"github.com/gin-gonic/gin"
)

type StatsProvider interface {
	GetLatest() observability.MonitoringStats
}

type HealthHandler struct {
	stats StatsProvider
}

func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{stats: stats}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	RespondOK(c, gin.H{"ok": true, "stats": h.stats.GetLatest()})
}

type TradeHandler struct {
	service services.ITradeService
}

func NewTradeHandler(service services.ITradeService) *TradeHandler {
	return &TradeHandler{service: service}
}

// POST /trades/invitations
func (h *TradeHandler) Invite(c *gin.Context) {
	var req services.InviteRequest
	if !bind(c, &req) {
		return
	}
	inv, err := h.service.Invite(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invitation": inv})
}

// POST /trades/invitations/accept
func (h *TradeHandler) Accept(c *gin.Context) {
	var req services.AnswerRequest
	if !bind(c, &req) {
		return
	}
	view, err := h.service.Accept(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"view": view})
}

// POST /trades/invitations/decline
func (h *TradeHandler) Decline(c *gin.Context) {
	var req services.AnswerRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.Decline(c.Request.Context(), req); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TradeHandler) AddCurrency(c *gin.Context) {
	h.currency(c, h.service.AddCurrency)
}

func (h *TradeHandler) RemoveCurrency(c *gin.Context) {
	h.currency(c, h.service.RemoveCurrency)
}

func (h *TradeHandler) AddAssets(c *gin.Context) {
	h.assets(c, h.service.AddAssets)
}

func (h *TradeHandler) RemoveAssets(c *gin.Context) {
	h.assets(c, h.service.RemoveAssets)
}

// POST /trades/:actor/confirm
func (h *TradeHandler) Confirm(c *gin.Context) {
	outcome, err := h.service.Confirm(c.Request.Context(), actorParam(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, outcome)
}

// POST /trades/:actor/cancel
func (h *TradeHandler) Cancel(c *gin.Context) {
	outcome, err := h.service.Cancel(c.Request.Context(), actorParam(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, outcome)
}

// GET /trades/:actor?page=N
func (h *TradeHandler) View(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_page", err)
			return
		}
		page = n
	}
	p, err := h.service.View(actorParam(c), page)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, p)
}

// GET /actors/:actor/notifications
func (h *TradeHandler) Notifications(c *gin.Context) {
	RespondOK(c, gin.H{"notifications": h.service.Notifications(actorParam(c))})
}

// GET /settlements?cursor=
func (h *TradeHandler) Settlements(c *gin.Context) {
	var cursor *string
	if raw := c.Query("cursor"); raw != "" {
		cursor = &raw
	}
	receipts, next, err := h.service.Settlements(cursor)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"receipts": receipts, "next_cursor": next})
}

type currencyFn func(ctx context.Context, actor domain.ActorID, req services.CurrencyRequest) (domain.Outcome, error)

type assetsFn func(ctx context.Context, actor domain.ActorID, req services.AssetsRequest) (services.BatchResult, error)

func (h *TradeHandler) currency(c *gin.Context, apply currencyFn) {
	var req services.CurrencyRequest
	if !bind(c, &req) {
		return
	}
	outcome, err := apply(c.Request.Context(), actorParam(c), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, outcome)
}

// assets answers 200 as soon as one item went through; refused items are
// listed in the body.
func (h *TradeHandler) assets(c *gin.Context, apply assetsFn) {
	var req services.AssetsRequest
	if !bind(c, &req) {
		return
	}
	result, err := apply(c.Request.Context(), actorParam(c), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, result)
}

func actorParam(c *gin.Context) domain.ActorID {
	return domain.ActorID(c.Param("actor"))
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	return true
}

type Scanner interface {
	Scan(prefix string, limit int) ([]internal.InspectRow, error)
}

// DebugHandler exposes raw storage entries. Only routed when enabled.
type DebugHandler struct {
	scanner Scanner
}

func NewDebugHandler(scanner Scanner) *DebugHandler {
	return &DebugHandler{scanner: scanner}
}

// GET /debug/inspect?prefix=member:&limit=N
func (h *DebugHandler) Inspect(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_limit", err)
		return
	}
	rows, err := h.scanner.Scan(c.DefaultQuery("prefix", "member:"), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "storage", err)
		return
	}
	RespondOK(c, gin.H{"rows": rows})
}
