package handlers

import (
	"context"

	"Flow/internal/config"
	"Flow/internal/middleware"
	"Flow/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров. ctx ограничивает фоновую работу,
// запущенную запросами (демо-наполнение), и должен жить столько же, сколько сервер.
func NewHandler(
	ctx context.Context,
	userService *service.UserService,
	itemService *service.ItemService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	// Handlers
	userHandler := NewUserHandler(ctx, userService, itemService, logger, config)
	itemHandler := NewItemHandler(itemService, logger, config)

	// User routes
	r.Post("/api/user/login", userHandler.Login)
	r.Post("/api/user/logout", userHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Delete("/api/user", userHandler.DeleteAccount)

		// Items routes
		r.Get("/api/items", itemHandler.List)
		r.Get("/api/items/all", itemHandler.All)
		r.Get("/api/items/count", itemHandler.Count)
		r.Get("/api/items/ranked", itemHandler.Ranked)
		r.Get("/api/items/digest", itemHandler.Digest)
		r.Get("/api/items/overdue", itemHandler.Overdue)
		r.Get("/api/items/{id}", itemHandler.Get)
		r.Post("/api/items", itemHandler.Save)
		r.Post("/api/items/delete", itemHandler.Delete)
	})

	return &Handler{Router: r}
}
