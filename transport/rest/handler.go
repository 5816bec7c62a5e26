package rest

import (
	stderrors "errors"
	"groupchat/auth"
	"groupchat/domain"
	"groupchat/errors"
	"groupchat/runtime/workers"
	"groupchat/services"
	"groupchat/transport/ws"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// HealthReporter is satisfied by the heartbeat worker.
type HealthReporter interface {
	Latest() workers.HealthStats
}

type Handler struct {
	auth         services.IAuthService
	chat         services.IChatService
	health       HealthReporter
	serversFile  string
	cookieMaxAge time.Duration
	secureCookie bool
}

type HandlerOption func(*Handler)

// WithSecureCookie marks the session cookie Secure, for TLS deployments.
func WithSecureCookie() HandlerOption {
	return func(h *Handler) { h.secureCookie = true }
}

func NewHandler(authService services.IAuthService, chat services.IChatService, health HealthReporter,
	serversFile string, sessionDuration time.Duration, opts ...HandlerOption) *Handler {
	h := &Handler{
		auth:         authService,
		chat:         chat,
		health:       health,
		serversFile:  serversFile,
		cookieMaxAge: sessionDuration,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type credentials struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var input credentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidRequest.Error()})
		return
	}
	if err := h.auth.Register(input.Nickname, input.Password); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *Handler) Login(c *gin.Context) {
	var input credentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidRequest.Error()})
		return
	}
	token, err := h.auth.Login(input.Nickname, input.Password)
	if err != nil {
		abort(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token.String(), int(h.cookieMaxAge.Seconds()), "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"token": token.String()})
}

func (h *Handler) CheckNickname(c *gin.Context) {
	var input struct {
		Nickname string `json:"nickname"`
	}
	// A missing body reads as an empty nickname
	_ = c.ShouldBindJSON(&input)

	err := h.chat.CheckNickname(input.Nickname)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"valid": true})
	case stderrors.Is(err, errors.ErrInvalidRequest):
		c.JSON(http.StatusOK, gin.H{"valid": false, "message": "Nickname cannot be empty"})
	case stderrors.Is(err, errors.ErrNicknameInUse):
		c.JSON(http.StatusOK, gin.H{"valid": false, "message": "Nickname already taken by an active user"})
	default:
		abort(c, err)
	}
}

// History answers an empty list to anonymous callers.
func (h *Handler) History(c *gin.Context) {
	nickname, ok := auth.Nickname(c)
	if !ok {
		c.JSON(http.StatusOK, []ws.MessageDTO{})
		return
	}
	messages, err := h.chat.History(nickname)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(messages, func(m domain.Message, _ int) ws.MessageDTO {
		return ws.ToMessageDTO(domain.FromMessage(m))
	}))
}

func (h *Handler) ClearHistory(c *gin.Context) {
	nickname, ok := auth.Nickname(c)
	if !ok {
		abort(c, errors.ErrUnauthenticated)
		return
	}
	if _, err := h.chat.ClearHistory(nickname); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.health.Latest())
}

// Servers lists the descriptors under the "servers" key of the servers file.
// The file is read on every call so edits show up without a restart.
func (h *Handler) Servers(c *gin.Context) {
	servers, err := loadServers(h.serversFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, servers)
}

func loadServers(path string) ([]map[string]any, error) {
	empty := []map[string]any{}
	if path == "" {
		return empty, nil
	}
	raw, err := os.ReadFile(path)
	if stderrors.Is(err, os.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return nil, err
	}

	var file struct {
		Servers []map[string]any `yaml:"servers"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if file.Servers == nil {
		return empty, nil
	}
	return file.Servers, nil
}

func abort(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrInvalidRequest),
		stderrors.Is(err, errors.ErrInvalidPassword),
		stderrors.Is(err, errors.ErrReservedNickname):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrNicknameTaken):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrInvalidCredentials),
		stderrors.Is(err, errors.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
