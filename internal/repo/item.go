package repo

import (
	"context"
	"fmt"
	"time"

	"Flow/internal/apperr"
	"Flow/internal/model"

	"gorm.io/gorm"
)

// Order задаёт порядок выдачи сводок.
type Order string

const (
	// OrderRecent: сначала последние отредактированные (заметки).
	OrderRecent Order = "recent"
	// OrderDue: срок по возрастанию, без срока в конце, затем приоритет и трудоёмкость по убыванию (задачи).
	OrderDue Order = "due"
)

// ParseOrder разбирает порядок; пустая строка даёт порядок по умолчанию для вида записи.
func ParseOrder(s string, kind model.Kind) (Order, error) {
	switch Order(s) {
	case OrderRecent, OrderDue:
		return Order(s), nil
	case "":
		if kind == model.KindTask {
			return OrderDue, nil
		}
		return OrderRecent, nil
	}
	return "", apperr.Validation("unknown order %q", s)
}

func (o Order) clause() (string, error) {
	switch o {
	case OrderRecent:
		return "items.last_edited DESC, items.id DESC", nil
	case OrderDue:
		return "items.due_date IS NULL, items.due_date ASC, items.priority DESC, items.estimated_effort DESC, items.id ASC", nil
	}
	return "", apperr.Validation("unknown order %q", string(o))
}

// ItemRepository определяет контракт доступа к Item для слоя сервиса.
// Все выборки по пользователю идут через связь владения.
type ItemRepository interface {
	// Upsert создаёт запись со связью владения (ID == 0) или обновляет существующую запись пользователя.
	Upsert(ctx context.Context, item *model.Item, userID int64) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Item, error)
	// GetForUser возвращает запись, только если ею владеет userID.
	GetForUser(ctx context.Context, userID, id int64) (*model.Item, error)
	OwnerOf(ctx context.Context, itemID int64) (int64, error)

	SummariesPage(ctx context.Context, userID int64, kind model.Kind, order Order, offset, limit int) ([]model.ItemSummary, error)
	ListSummaries(ctx context.Context, userID int64, kind model.Kind, order Order) ([]model.ItemSummary, error)
	Overdue(ctx context.Context, userID int64, now time.Time) ([]model.ItemSummary, error)
	// Count считает записи пользователя; пустой kind - все виды.
	Count(ctx context.Context, userID int64, kind model.Kind) (int64, error)

	// DeleteItems удаляет записи из ids, принадлежащие userID, и возвращает пути их файлов.
	DeleteItems(ctx context.Context, userID int64, ids []int64) (deleted int64, paths []string, err error)
	// DeleteAccount атомарно удаляет записи пользователя и его самого, возвращает пути файлов.
	DeleteAccount(ctx context.Context, userID int64) (paths []string, err error)
}

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository создаёт реализацию репозитория для Item.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

// колонки, которые меняет обновление; kind и владелец после создания не меняются
var updatableColumns = []string{
	"title", "abstract", "body_inline", "body_path", "last_edited",
	"priority", "estimated_effort", "due_date",
}

func (r *itemRepo) Upsert(ctx context.Context, item *model.Item, userID int64) (int64, error) {
	normalizeTimes(item)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.ID == 0 {
			if err := tx.Create(item).Error; err != nil {
				return classify(err, "insert item")
			}
			rel := &model.UserItemRelation{UserID: userID, ItemID: item.ID}
			if err := tx.Create(rel).Error; err != nil {
				return classify(err, "insert relation")
			}
			return nil
		}

		// чужая или отсутствующая запись не обновляется
		res := tx.Model(&model.Item{}).
			Where("id = ? AND id IN (?)", item.ID,
				tx.Model(&model.UserItemRelation{}).Select("item_id").Where("user_id = ?", userID)).
			Select(updatableColumns).
			Updates(item)
		if res.Error != nil {
			return classify(res.Error, "update item")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("item %d", item.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return item.ID, nil
}

func (r *itemRepo) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	var it model.Item
	if err := r.db.WithContext(ctx).First(&it, id).Error; err != nil {
		return nil, classify(err, fmt.Sprintf("item %d", id))
	}
	return &it, nil
}

func (r *itemRepo) GetForUser(ctx context.Context, userID, id int64) (*model.Item, error) {
	var it model.Item
	err := ownedQuery(r.db.WithContext(ctx), userID).
		Where("items.id = ?", id).
		First(&it).Error
	if err != nil {
		return nil, classify(err, fmt.Sprintf("item %d", id))
	}
	return &it, nil
}

func (r *itemRepo) OwnerOf(ctx context.Context, itemID int64) (int64, error) {
	var rel model.UserItemRelation
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&rel).Error; err != nil {
		return 0, classify(err, fmt.Sprintf("owner of item %d", itemID))
	}
	return rel.UserID, nil
}

func (r *itemRepo) SummariesPage(ctx context.Context, userID int64, kind model.Kind, order Order, offset, limit int) ([]model.ItemSummary, error) {
	if offset < 0 || limit <= 0 {
		return nil, apperr.Validation("invalid page window offset=%d limit=%d", offset, limit)
	}
	return r.summaries(ctx, userID, kind, order, func(q *gorm.DB) *gorm.DB {
		return q.Offset(offset).Limit(limit)
	})
}

func (r *itemRepo) ListSummaries(ctx context.Context, userID int64, kind model.Kind, order Order) ([]model.ItemSummary, error) {
	return r.summaries(ctx, userID, kind, order, nil)
}

func (r *itemRepo) Overdue(ctx context.Context, userID int64, now time.Time) ([]model.ItemSummary, error) {
	out := make([]model.ItemSummary, 0)
	orderBy, _ := OrderDue.clause()
	err := ownedQuery(r.db.WithContext(ctx), userID).
		Select(summaryColumns).
		Where("items.kind = ? AND items.due_date IS NOT NULL AND items.due_date < ?", model.KindTask, now.UTC()).
		Order(orderBy).
		Scan(&out).Error
	if err != nil {
		return nil, classify(err, "overdue tasks")
	}
	return out, nil
}

func (r *itemRepo) Count(ctx context.Context, userID int64, kind model.Kind) (int64, error) {
	var n int64
	q := ownedQuery(r.db.WithContext(ctx), userID)
	if kind != "" {
		q = q.Where("items.kind = ?", kind)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, classify(err, "count items")
	}
	return n, nil
}

func (r *itemRepo) DeleteItems(ctx context.Context, userID int64, ids []int64) (int64, []string, error) {
	if len(ids) == 0 {
		return 0, nil, nil
	}
	var (
		deleted int64
		paths   []string
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []model.Item
		if err := ownedQuery(tx, userID).
			Select("items.id, items.body_path").
			Where("items.id IN ?", ids).
			Find(&owned).Error; err != nil {
			return classify(err, "select items")
		}
		if len(owned) == 0 {
			return nil
		}
		ownedIDs := make([]int64, 0, len(owned))
		for _, it := range owned {
			ownedIDs = append(ownedIDs, it.ID)
			if it.BodyPath != nil {
				paths = append(paths, *it.BodyPath)
			}
		}
		res := tx.Where("id IN ?", ownedIDs).Delete(&model.Item{})
		if res.Error != nil {
			return classify(res.Error, "delete items")
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return deleted, paths, nil
}

func (r *itemRepo) DeleteAccount(ctx context.Context, userID int64) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []model.Item
		if err := ownedQuery(tx, userID).
			Select("items.id, items.body_path").
			Find(&owned).Error; err != nil {
			return classify(err, "select items")
		}
		ids := make([]int64, 0, len(owned))
		for _, it := range owned {
			ids = append(ids, it.ID)
			if it.BodyPath != nil {
				paths = append(paths, *it.BodyPath)
			}
		}
		if len(ids) > 0 {
			// связи удаляются каскадом
			if err := tx.Where("id IN ?", ids).Delete(&model.Item{}).Error; err != nil {
				return classify(err, "delete items")
			}
		}
		res := tx.Delete(&model.User{}, userID)
		if res.Error != nil {
			return classify(res.Error, "delete user")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("user %d", userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

const summaryColumns = "items.id, items.kind, items.title, items.abstract, items.last_edited, " +
	"items.priority, items.estimated_effort, items.due_date"

func (r *itemRepo) summaries(ctx context.Context, userID int64, kind model.Kind, order Order, window func(*gorm.DB) *gorm.DB) ([]model.ItemSummary, error) {
	orderBy, err := order.clause()
	if err != nil {
		return nil, err
	}
	q := ownedQuery(r.db.WithContext(ctx), userID).Select(summaryColumns)
	if kind != "" {
		q = q.Where("items.kind = ?", kind)
	}
	q = q.Order(orderBy)
	if window != nil {
		q = window(q)
	}
	out := make([]model.ItemSummary, 0)
	if err := q.Scan(&out).Error; err != nil {
		return nil, classify(err, "list summaries")
	}
	return out, nil
}

// normalizeTimes приводит время к UTC: SQLite сравнивает даты как строки.
func normalizeTimes(item *model.Item) {
	item.LastEdited = item.LastEdited.UTC()
	if item.DueDate != nil {
		d := item.DueDate.UTC()
		item.DueDate = &d
	}
}

// ownedQuery: записи, связанные с userID.
func ownedQuery(db *gorm.DB, userID int64) *gorm.DB {
	return db.Model(&model.Item{}).
		Joins("JOIN user_item_relations ON user_item_relations.item_id = items.id").
		Where("user_item_relations.user_id = ?", userID)
}
