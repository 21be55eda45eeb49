package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/convoview/internal/conversation"
	apperrors "github.com/kbukum/convoview/errors"
	"github.com/kbukum/convoview/server"
	"github.com/kbukum/convoview/validation"
)

type createdResponse struct {
	ID uint `json:"id"`
}

func (h *Handler) listConversations(c *gin.Context) {
	var opts conversation.ListOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("page", "page and page_size must be integers"))
		return
	}
	items, total, err := h.conversations.List(c.Request.Context(), opts)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	opts = opts.Normalize()
	server.RespondOKWithMeta(c, items, server.NewMeta(opts.Page, opts.PageSize, total))
}

// createConversation stores the request body as file_data. File name and
// path come from the fname and fpath query parameters.
func (h *Handler) createConversation(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			server.RespondWithError(c, apperrors.TooLarge(maxErr.Limit))
			return
		}
		server.RespondWithError(c, apperrors.InvalidInput("body", "cannot read request body"))
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' || !json.Valid(body) {
		server.RespondWithError(c, apperrors.InvalidInput("body", "request body must be a JSON object"))
		return
	}

	conv := &conversation.Conversation{
		FileName: c.Query("fname"),
		FilePath: c.Query("fpath"),
		FileData: json.RawMessage(body),
	}
	if err := h.conversations.Create(c.Request.Context(), conv); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, createdResponse{ID: conv.ID})
}

func (h *Handler) getConversation(c *gin.Context) {
	conv, ok := h.loadConversation(c)
	if !ok {
		return
	}
	server.RespondOK(c, conv)
}

// loadConversation resolves the :id parameter. On failure the error
// response has been written.
func (h *Handler) loadConversation(c *gin.Context) (*conversation.Conversation, bool) {
	id, err := validation.PositiveID("id", c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return nil, false
	}
	conv, err := h.conversations.Get(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return nil, false
	}
	return conv, true
}

// loadDocument resolves :id and parses its file_data. When allowEmpty is
// set a conversation without file_data yields an empty document.
func (h *Handler) loadDocument(c *gin.Context, allowEmpty bool) (*conversation.Conversation, *conversation.Document, bool) {
	id, err := validation.PositiveID("id", c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return nil, nil, false
	}
	conv, doc, err := h.conversations.Document(c.Request.Context(), id)
	if err != nil {
		if allowEmpty && apperrors.HasCode(err, apperrors.ErrCodeNoData) {
			return conv, conversation.NewDocument(nil), true
		}
		server.RespondWithError(c, err)
		return nil, nil, false
	}
	return conv, doc, true
}
