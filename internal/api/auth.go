package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/convoview/auth/authctx"
	"github.com/kbukum/convoview/auth/jwt"
	"github.com/kbukum/convoview/internal/account"
	apperrors "github.com/kbukum/convoview/errors"
	"github.com/kbukum/convoview/server"
	"github.com/kbukum/convoview/validation"
)

type registerResponse struct {
	Message string        `json:"message"`
	User    *account.User `json:"user"`
}

// loginForm accepts form-encoded or JSON credentials.
type loginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req account.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", "request body must be a JSON object"))
		return
	}
	u, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, registerResponse{Message: "User registered successfully", User: u})
}

func (h *Handler) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", "username and password are required"))
		return
	}
	if err := validation.Validate(form); err != nil {
		server.RespondWithError(c, err)
		return
	}
	tok, err := h.accounts.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.HTTPStatus == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
		}
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, tok)
}

func (h *Handler) me(c *gin.Context) {
	claims, ok := authctx.Get[*jwt.Claims](c.Request.Context())
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		server.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}
	u, err := h.accounts.Me(c.Request.Context(), claims.Subject)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, u)
}
