package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/convoview/internal/account"
	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/internal/media"
	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/sse"
)

// Deps are the services behind the routes. Accounts and Hub are optional:
// without them the auth and event routes are not registered.
type Deps struct {
	Conversations *conversation.Service
	Media         *media.Service
	Accounts      *account.Service
	Hub           *sse.Hub

	// ClassLabel selects the classifier used for class stats and filters.
	ClassLabel string
	KeepAlive  time.Duration
	Log        *logger.Logger
}

// Handler serves the conversation API.
type Handler struct {
	conversations *conversation.Service
	media         *media.Service
	accounts      *account.Service
	hub           *sse.Hub
	classLabel    string
	keepAlive     time.Duration
	log           *logger.Logger
}

// New creates a handler.
func New(d Deps) *Handler {
	if d.ClassLabel == "" {
		d.ClassLabel = conversation.DefaultClassLabel
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Handler{
		conversations: d.Conversations,
		media:         d.Media,
		accounts:      d.Accounts,
		hub:           d.Hub,
		classLabel:    d.ClassLabel,
		keepAlive:     d.KeepAlive,
		log:           d.Log.WithComponent("api"),
	}
}

// Register mounts the routes under /api. auth, when not nil, guards
// everything except register and login.
func (h *Handler) Register(r gin.IRouter, auth gin.HandlerFunc) {
	api := r.Group("/api")
	if h.accounts != nil {
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
	}

	protected := api.Group("")
	if auth != nil {
		protected.Use(auth)
	}
	if h.accounts != nil {
		protected.GET("/auth/me", h.me)
	}

	protected.GET("/conversations", h.listConversations)
	protected.POST("/conversations", h.createConversation)
	protected.GET("/conversations/:id", h.getConversation)
	protected.GET("/conversations/:id/fragments", h.fragments)
	protected.GET("/conversations/:id/regions", h.regions)
	protected.GET("/conversations/:id/audio", h.audio)
	protected.GET("/conversations/:id/audio/url", h.audioURL)
	protected.GET("/analyze/stats/:id", h.stats)

	if h.hub != nil {
		protected.GET("/events", h.events)
	}
}
