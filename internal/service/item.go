package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"Flow/internal/apperr"
	"Flow/internal/model"
	"Flow/internal/offload"
	"Flow/internal/repo"
	"Flow/internal/scoring"
	"Flow/internal/worker"

	"go.uber.org/zap"
)

// Settings - параметры выдачи списков и демо-наполнения.
type Settings struct {
	PageSize         int
	PrefetchDistance int
	SeedUser         string
	SeedCount        int
}

// DefaultSettings совпадают со значениями конфигурации по умолчанию.
var DefaultSettings = Settings{PageSize: 20, PrefetchDistance: 5, SeedUser: "large", SeedCount: 1000}

// ItemService инкапсулирует бизнес-логику работы с заметками и задачами.
type ItemService struct {
	items    repo.ItemRepository
	bodies   *offload.Policy
	logger   *zap.SugaredLogger
	settings Settings
	now      func() time.Time

	// фоновое демо-наполнение: не больше одного на пользователя
	seedMu  sync.Mutex
	seeding map[int64]*worker.Future[int]
	seedWG  sync.WaitGroup
}

func NewItemService(r repo.ItemRepository, bodies *offload.Policy, logger *zap.SugaredLogger, settings Settings) *ItemService {
	if settings.PageSize <= 0 {
		settings.PageSize = DefaultSettings.PageSize
	}
	if settings.PrefetchDistance < 0 || settings.PrefetchDistance >= settings.PageSize {
		settings.PrefetchDistance = settings.PageSize / 4
	}
	return &ItemService{
		items:    r,
		bodies:   bodies,
		logger:   logger,
		settings: settings,
		now:      time.Now,
		seeding:  map[int64]*worker.Future[int]{},
	}
}

// Draft - входные данные сохранения. ID == 0 создаёт новую запись.
type Draft struct {
	ID              int64
	Kind            model.Kind
	Title           string
	Body            string
	Priority        int
	EstimatedEffort int
	DueDate         *time.Time
}

// Detail - запись с восстановленным телом.
type Detail struct {
	model.Item
	Body string
}

// Page - окно сводок.
type Page struct {
	Items   []model.ItemSummary
	HasMore bool
}

// Digest - содержимое уведомления о задачах.
type Digest struct {
	Title string
	Text  string
	Lines []string
}

// Validate проверяет черновик до любой записи.
func (d *Draft) Validate() error {
	if !d.Kind.Valid() {
		return apperr.Validation("unknown kind %q", d.Kind)
	}
	if strings.TrimSpace(d.Title) == "" {
		return apperr.Validation("title is required")
	}
	if d.Kind == model.KindNote {
		return nil
	}
	if d.Priority < model.MinPriority || d.Priority > model.MaxPriority {
		return apperr.Validation("priority %d out of range %d..%d", d.Priority, model.MinPriority, model.MaxPriority)
	}
	if d.EstimatedEffort < 0 {
		return apperr.Validation("estimated effort must not be negative")
	}
	return nil
}

// Save сохраняет черновик пользователя и возвращает id записи.
func (s *ItemService) Save(ctx context.Context, userID int64, d Draft) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}

	var prev *model.Item
	if d.ID != 0 {
		cur, err := s.items.GetForUser(ctx, userID, d.ID)
		if err != nil {
			return 0, s.traceForeign(ctx, userID, d.ID, err)
		}
		if cur.Kind != d.Kind {
			return 0, apperr.Validation("item %d is a %s, not a %s", d.ID, cur.Kind, d.Kind)
		}
		prev = cur
	}

	body, err := s.bodies.Store(d.Kind, userID, d.ID, d.Body)
	if err != nil {
		return 0, fmt.Errorf("store body: %w", err)
	}

	it := &model.Item{
		ID:         d.ID,
		Kind:       d.Kind,
		Title:      strings.TrimSpace(d.Title),
		Abstract:   model.Abstract(d.Body),
		BodyInline: body.Inline,
		BodyPath:   body.Path,
		LastEdited: s.now().UTC(),
	}
	if d.Kind == model.KindTask {
		it.Priority = d.Priority
		it.EstimatedEffort = d.EstimatedEffort
		it.DueDate = d.DueDate
	}

	id, err := s.items.Upsert(ctx, it, userID)
	if err != nil {
		// новый файл без записи никому не нужен
		if body.Path != nil {
			s.removeFile(*body.Path)
		}
		return 0, err
	}

	if prev != nil && prev.BodyPath != nil && (body.Path == nil || *body.Path != *prev.BodyPath) {
		s.removeFile(*prev.BodyPath)
	}

	s.logger.Debugw("Item saved", "user_id", userID, "item_id", id, "kind", d.Kind, "offloaded", body.Path != nil)
	return id, nil
}

// Get возвращает запись пользователя вместе с телом.
func (s *ItemService) Get(ctx context.Context, userID, id int64) (*Detail, error) {
	it, err := s.items.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, s.traceForeign(ctx, userID, id, err)
	}
	body, err := s.bodies.LoadItem(it)
	if err != nil {
		s.logger.Warnw("Item body unavailable", "user_id", userID, "item_id", id, "error", err)
		return nil, err
	}
	return &Detail{Item: *it, Body: body}, nil
}

// Page возвращает страницу n (с нуля) сводок пользователя.
func (s *ItemService) Page(ctx context.Context, userID int64, kind model.Kind, order repo.Order, n int) (Page, error) {
	if n < 0 {
		return Page{}, apperr.Validation("page must not be negative")
	}
	size := s.settings.PageSize
	// лишняя строка показывает, есть ли следующая страница
	rows, err := s.items.SummariesPage(ctx, userID, kind, order, n*size, size+1)
	if err != nil {
		return Page{}, err
	}
	if len(rows) > size {
		return Page{Items: rows[:size], HasMore: true}, nil
	}
	return Page{Items: rows}, nil
}

// Pager создаёт ленивый постраничный обход сводок пользователя.
func (s *ItemService) Pager(userID int64, kind model.Kind, order repo.Order) *Pager {
	return NewPager(func(ctx context.Context, offset, limit int) ([]model.ItemSummary, error) {
		return s.items.SummariesPage(ctx, userID, kind, order, offset, limit)
	}, s.settings.PageSize, s.settings.PrefetchDistance)
}

// Count возвращает число записей пользователя вида kind (пустой kind: все).
func (s *ItemService) Count(ctx context.Context, userID int64, kind model.Kind) (int64, error) {
	if kind != "" && !kind.Valid() {
		return 0, apperr.Validation("unknown kind %q", kind)
	}
	return s.items.Count(ctx, userID, kind)
}

// Ranked упорядочивает задачи пользователя по убыванию оценки. limit <= 0: все задачи.
func (s *ItemService) Ranked(ctx context.Context, userID int64, limit int) ([]scoring.Ranked[model.ItemSummary], error) {
	tasks, err := s.items.ListSummaries(ctx, userID, model.KindTask, repo.OrderDue)
	if err != nil {
		return nil, err
	}
	ranked := scoring.Rank(tasks, s.now(), summaryFactors)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Overdue возвращает задачи с истёкшим сроком.
func (s *ItemService) Overdue(ctx context.Context, userID int64) ([]model.ItemSummary, error) {
	return s.items.Overdue(ctx, userID, s.now())
}

// Digest собирает уведомление из наиболее срочных задач; без задач возвращает пустой Digest.
func (s *ItemService) Digest(ctx context.Context, userID int64, limit int) (Digest, error) {
	ranked, err := s.Ranked(ctx, userID, 0)
	if err != nil {
		return Digest{}, err
	}
	if len(ranked) == 0 {
		return Digest{}, nil
	}
	shown := ranked
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	lines := make([]string, 0, len(shown))
	for _, r := range shown {
		lines = append(lines, fmt.Sprintf("- %s: %s", r.Item.Title, r.Item.Abstract))
	}
	return Digest{
		Title: "Your Tasks",
		Text:  fmt.Sprintf("You have %d tasks!", len(ranked)),
		Lines: lines,
	}, nil
}

// Delete удаляет записи пользователя из ids; чужие id пропускаются.
func (s *ItemService) Delete(ctx context.Context, userID int64, ids []int64) (int64, error) {
	deleted, paths, err := s.items.DeleteItems(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	for _, p := range paths {
		s.removeFile(p)
	}
	s.logger.Infow("Items deleted", "user_id", userID, "requested", len(ids), "deleted", deleted)
	return deleted, nil
}

// traceForeign отмечает в логе обращения к чужим записям.
// Клиент в обоих случаях получает тот же NotFound.
func (s *ItemService) traceForeign(ctx context.Context, userID, id int64, err error) error {
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	owner, oerr := s.items.OwnerOf(ctx, id)
	if oerr == nil && owner != userID {
		s.logger.Warnw("Foreign item requested", "user_id", userID, "item_id", id, "owner_id", owner)
	}
	return err
}

func (s *ItemService) removeFile(path string) {
	if err := s.bodies.Remove(path); err != nil {
		s.logger.Warnw("Failed to remove body file", "path", path, "error", err)
	}
}

func summaryFactors(it model.ItemSummary) scoring.Factors {
	return scoring.Factors{Priority: it.Priority, EstimatedEffort: it.EstimatedEffort, DueDate: it.DueDate}
}
