package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/convoview/server"
)

func (h *Handler) audio(c *gin.Context) {
	conv, ok := h.loadConversation(c)
	if !ok {
		return
	}
	if err := h.media.Serve(c.Writer, c.Request, conv); err != nil {
		server.RespondWithError(c, err)
	}
}

func (h *Handler) audioURL(c *gin.Context) {
	conv, ok := h.loadConversation(c)
	if !ok {
		return
	}
	stream := fmt.Sprintf("/api/conversations/%d/audio", conv.ID)
	link, err := h.media.URL(c.Request.Context(), conv, stream)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, link)
}
