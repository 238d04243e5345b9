package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"Flow/internal/config"
	"Flow/internal/middleware"
	"Flow/internal/service"

	"go.uber.org/zap"
)

// UserHandler обрабатывает вход и удаление аккаунта.
type UserHandler struct {
	// BaseCtx - контекст времени жизни сервера для фоновых задач
	BaseCtx     context.Context
	UserService *service.UserService
	ItemService *service.ItemService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

func NewUserHandler(ctx context.Context, userService *service.UserService, itemService *service.ItemService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{BaseCtx: ctx, UserService: userService, ItemService: itemService, Logger: logger, Config: cfg}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID int64 `json:"user_id"`
}

// Login вход; неизвестный логин регистрируется. Для демо-пользователя запускается наполнение.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Login: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, h.Logger, "Login", err)
		return
	}

	if err := middleware.SetLoginCookie(w, user.ID, h.Config.AuthSecret); err != nil {
		h.Logger.Errorw("Login: failed to set cookie", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// наполнение переживает запрос, но не сервер; результат пишется в лог сервисом
	h.ItemService.SeedDemo(h.BaseCtx, user.ID, user.UserName)

	h.Logger.Infow("User logged in", "user_id", user.ID, "login", user.UserName)
	writeJSON(w, http.StatusOK, loginResponse{UserID: user.ID})
}

// Logout сбрасывает cookie авторизации.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearLoginCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount удаляет пользователя со всеми записями.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.UserService.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, h.Logger, "DeleteAccount", err)
		return
	}
	middleware.ClearLoginCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
