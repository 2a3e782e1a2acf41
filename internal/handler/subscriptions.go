package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

type SubscriptionHandler struct {
	Store  repository.Store
	Logger *zap.Logger
}

func (h *SubscriptionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/subscriptions")
	group.GET("", h.list)
	group.POST("", h.subscribe)
	group.DELETE("/:channel_id", h.unsubscribe)
}

func (h *SubscriptionHandler) list(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable")
		return
	}
	subs, err := h.Store.ListSubscriptions(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list subscriptions failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	Ok(c, subs)
}

type subscribeRequest struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id" binding:"required"`
}

func (h *SubscriptionHandler) subscribe(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable")
		return
	}
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	sub := &models.Subscription{
		GuildID:   strings.TrimSpace(req.GuildID),
		ChannelID: strings.TrimSpace(req.ChannelID),
		Active:    true,
	}
	if sub.ChannelID == "" {
		Error(c, http.StatusBadRequest, "channel_id required")
		return
	}
	if err := h.Store.UpsertSubscription(c.Request.Context(), sub); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("subscribe failed", zap.String("channel_id", sub.ChannelID), zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	Ok(c, sub)
}

func (h *SubscriptionHandler) unsubscribe(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable")
		return
	}
	channelID := strings.TrimSpace(c.Param("channel_id"))
	if channelID == "" {
		Error(c, http.StatusBadRequest, "channel_id required")
		return
	}
	if err := h.Store.DeactivateSubscription(c.Request.Context(), channelID); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("unsubscribe failed", zap.String("channel_id", channelID), zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error())
		return
	}
	Ok(c, gin.H{"channel_id": channelID, "active": false})
}
