package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"Flow/internal/model"
	"Flow/internal/worker"

	"github.com/sourcegraph/conc/pool"
)

const seedWorkers = 4

// SeedDemo в фоне наполняет демо-пользователя заметками и задачами до SeedCount каждого вида.
// ctx задаёт время жизни наполнения (обычно время жизни сервера); прерванное наполнение
// продолжается при следующем входе. Повторный вызов во время работы возвращает тот же Future.
// Результат: число созданных записей.
func (s *ItemService) SeedDemo(ctx context.Context, userID int64, userName string) *worker.Future[int] {
	if s.settings.SeedUser == "" || userName != s.settings.SeedUser || s.settings.SeedCount <= 0 {
		return worker.Resolved(0, nil)
	}

	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if f, ok := s.seeding[userID]; ok {
		return f
	}

	s.seedWG.Add(1)
	f := worker.Go(ctx, func(ctx context.Context) (int, error) {
		defer func() {
			s.seedMu.Lock()
			delete(s.seeding, userID)
			s.seedMu.Unlock()
			s.seedWG.Done()
		}()
		return s.seedAll(ctx, userID)
	})
	s.seeding[userID] = f
	return f
}

// WaitSeeding ждёт завершения всех фоновых наполнений или отмены ctx.
func (s *ItemService) WaitSeeding(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.seedWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ItemService) seedAll(ctx context.Context, userID int64) (int, error) {
	total := 0
	for _, kind := range []model.Kind{model.KindNote, model.KindTask} {
		n, err := s.seedKind(ctx, userID, kind)
		total += n
		if err != nil {
			s.logger.Errorw("Demo seeding failed", "user_id", userID, "kind", kind, "created", total, "error", err)
			return total, err
		}
	}
	if total > 0 {
		s.logger.Infow("Demo data seeded", "user_id", userID, "created", total)
	}
	return total, nil
}

// seedKind добивает записи вида kind до SeedCount; нумерация продолжается с имеющихся.
func (s *ItemService) seedKind(ctx context.Context, userID int64, kind model.Kind) (int, error) {
	have, err := s.items.Count(ctx, userID, kind)
	if err != nil {
		return 0, err
	}
	if have >= int64(s.settings.SeedCount) {
		return 0, nil
	}

	var created atomic.Int64
	p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(seedWorkers)
	for i := int(have) + 1; i <= s.settings.SeedCount; i++ {
		d := demoDraft(kind, i, s.now().UTC())
		p.Go(func(ctx context.Context) error {
			if _, err := s.Save(ctx, userID, d); err != nil {
				return fmt.Errorf("seed %s %d: %w", kind, i, err)
			}
			created.Add(1)
			return nil
		})
	}
	err = p.Wait()
	return int(created.Load()), err
}

func demoDraft(kind model.Kind, i int, now time.Time) Draft {
	if kind == model.KindNote {
		return Draft{
			Kind:  model.KindNote,
			Title: fmt.Sprintf("Note %d", i),
			Body:  fmt.Sprintf("Welcome to Note %d", i),
		}
	}
	due := now
	return Draft{
		Kind:     model.KindTask,
		Title:    fmt.Sprintf("Task %d", i),
		Body:     fmt.Sprintf("Welcome to Task %d", i),
		Priority: model.MinPriority,
		DueDate:  &due,
	}
}
