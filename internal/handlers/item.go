package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"Flow/internal/apperr"
	"Flow/internal/config"
	"Flow/internal/middleware"
	"Flow/internal/model"
	"Flow/internal/repo"
	"Flow/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ItemHandler обрабатывает запросы к заметкам и задачам.
type ItemHandler struct {
	Service *service.ItemService
	Logger  *zap.SugaredLogger
	Config  *config.Config
}

func NewItemHandler(s *service.ItemService, logger *zap.SugaredLogger, cfg *config.Config) *ItemHandler {
	return &ItemHandler{Service: s, Logger: logger, Config: cfg}
}

type summaryResponse struct {
	ID              int64   `json:"id"`
	Kind            string  `json:"kind"`
	Title           string  `json:"title"`
	Abstract        string  `json:"abstract"`
	LastEdited      string  `json:"last_edited"`
	Priority        int     `json:"priority,omitempty"`
	EstimatedEffort int     `json:"estimated_effort,omitempty"`
	DueDate         *string `json:"due_date,omitempty"`
}

type itemResponse struct {
	summaryResponse
	Body string `json:"body"`
}

type rankedResponse struct {
	summaryResponse
	Score float64 `json:"score"`
}

type listResponse struct {
	Items   []summaryResponse `json:"items"`
	HasMore bool              `json:"has_more"`
}

type saveRequest struct {
	ID              int64  `json:"id"`
	Kind            string `json:"kind"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	Priority        int    `json:"priority"`
	EstimatedEffort int    `json:"estimated_effort"`
	DueDate         string `json:"due_date"` // RFC3339, пусто = без срока
}

type deleteRequest struct {
	IDs []int64 `json:"ids"`
}

func toSummary(s model.ItemSummary) summaryResponse {
	out := summaryResponse{
		ID:              s.ID,
		Kind:            string(s.Kind),
		Title:           s.Title,
		Abstract:        s.Abstract,
		LastEdited:      s.LastEdited.UTC().Format(time.RFC3339),
		Priority:        s.Priority,
		EstimatedEffort: s.EstimatedEffort,
	}
	if s.DueDate != nil {
		d := s.DueDate.UTC().Format(time.RFC3339)
		out.DueDate = &d
	}
	return out
}

func toSummaries(list []model.ItemSummary) []summaryResponse {
	out := make([]summaryResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSummary(s))
	}
	return out
}

// List страница сводок: ?kind=note|task&order=recent|due&page=N
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	q := r.URL.Query()

	kind := model.Kind(q.Get("kind"))
	if !kind.Valid() {
		writeError(w, h.Logger, "List", apperr.Validation("unknown kind %q", kind))
		return
	}
	order, err := repo.ParseOrder(q.Get("order"), kind)
	if err != nil {
		writeError(w, h.Logger, "List", err)
		return
	}
	page, err := queryInt(r, "page", 0)
	if err != nil {
		writeError(w, h.Logger, "List", err)
		return
	}

	p, err := h.Service.Page(r.Context(), userID, kind, order, page)
	if err != nil {
		writeError(w, h.Logger, "List", err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: toSummaries(p.Items), HasMore: p.HasMore})
}

// All отдаёт всю выборку построчным JSON (application/x-ndjson), читая её
// страницами через Pager с упреждающей загрузкой следующей страницы.
func (h *ItemHandler) All(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	q := r.URL.Query()

	kind := model.Kind(q.Get("kind"))
	if !kind.Valid() {
		writeError(w, h.Logger, "All", apperr.Validation("unknown kind %q", kind))
		return
	}
	order, err := repo.ParseOrder(q.Get("order"), kind)
	if err != nil {
		writeError(w, h.Logger, "All", err)
		return
	}

	pager := h.Service.Pager(userID, kind, order)
	enc := json.NewEncoder(w)
	n := 0
	for s, err := range pager.All(r.Context()) {
		if err != nil {
			if n == 0 {
				writeError(w, h.Logger, "All", err)
				return
			}
			// заголовок уже ушёл, поток просто обрывается
			h.Logger.Errorw("All: stream aborted", "user_id", userID, "sent", n, "error", err)
			return
		}
		if n == 0 {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
		}
		if err := enc.Encode(toSummary(s)); err != nil {
			h.Logger.Warnw("All: client gone", "user_id", userID, "sent", n, "error", err)
			return
		}
		n++
	}
	if n == 0 {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
	}
}

// Count число записей пользователя; без kind считаются все.
func (h *ItemHandler) Count(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	n, err := h.Service.Count(r.Context(), userID, model.Kind(r.URL.Query().Get("kind")))
	if err != nil {
		writeError(w, h.Logger, "Count", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// Ranked задачи по убыванию счёта; limit=0 без ограничения.
func (h *ItemHandler) Ranked(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, h.Logger, "Ranked", err)
		return
	}
	ranked, err := h.Service.Ranked(r.Context(), userID, limit)
	if err != nil {
		writeError(w, h.Logger, "Ranked", err)
		return
	}
	out := make([]rankedResponse, 0, len(ranked))
	for _, rk := range ranked {
		out = append(out, rankedResponse{summaryResponse: toSummary(rk.Item), Score: rk.Score})
	}
	writeJSON(w, http.StatusOK, out)
}

// Digest текст уведомления о задачах.
func (h *ItemHandler) Digest(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	limit, err := queryInt(r, "limit", 5)
	if err != nil {
		writeError(w, h.Logger, "Digest", err)
		return
	}
	d, err := h.Service.Digest(r.Context(), userID, limit)
	if err != nil {
		writeError(w, h.Logger, "Digest", err)
		return
	}
	lines := d.Lines
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"title": d.Title, "text": d.Text, "lines": lines})
}

func (h *ItemHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	list, err := h.Service.Overdue(r.Context(), userID)
	if err != nil {
		writeError(w, h.Logger, "Overdue", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaries(list))
}

// Get полная запись с телом.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	d, err := h.Service.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.Logger, "Get", err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{summaryResponse: toSummary(d.Summary()), Body: d.Body})
}

// Save создаёт (id = 0) или обновляет запись.
func (h *ItemHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Save: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	d := service.Draft{
		ID:              req.ID,
		Kind:            model.Kind(req.Kind),
		Title:           req.Title,
		Body:            req.Body,
		Priority:        req.Priority,
		EstimatedEffort: req.EstimatedEffort,
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			writeError(w, h.Logger, "Save", apperr.Validation("invalid due_date %q", req.DueDate))
			return
		}
		d.DueDate = &due
	}

	id, err := h.Service.Save(r.Context(), userID, d)
	if err != nil {
		writeError(w, h.Logger, "Save", err)
		return
	}

	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]int64{"id": id})
}

// Delete удаляет перечисленные записи пользователя; чужие id пропускаются.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Delete: invalid request body", "error", err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	n, err := h.Service.Delete(r.Context(), userID, req.IDs)
	if err != nil {
		writeError(w, h.Logger, "Delete", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
