package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/convoview/sse"
)

// events streams conversation.created notifications.
func (h *Handler) events(c *gin.Context) {
	sse.ServeSSE(h.hub, c.Writer, c.Request, uuid.NewString(), h.keepAlive)
}
