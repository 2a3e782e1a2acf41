package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsalpha/internal/repository"
)

type CycleHandler struct {
	Store  repository.Store
	Logger *zap.Logger
}

func (h *CycleHandler) Register(r *gin.Engine) {
	r.GET("/api/cycles", h.listCycles)
}

func (h *CycleHandler) listCycles(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable")
		return
	}
	limit := intQuery(c, "limit", 20)
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	cycles, err := h.Store.ListRecentCycles(c.Request.Context(), limit)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list cycles failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	Ok(c, cycles)
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}
