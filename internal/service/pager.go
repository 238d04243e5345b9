package service

import (
	"context"
	"iter"

	"Flow/internal/model"
	"Flow/internal/worker"
)

// FetchFunc читает окно сводок [offset, offset+limit).
type FetchFunc func(ctx context.Context, offset, limit int) ([]model.ItemSummary, error)

// Pager - ленивый перезапускаемый обход сводок страницами.
// Держит одну загруженную страницу и, когда чтение подходит к её концу
// ближе чем на prefetchDistance, заранее запрашивает следующую.
// Не предназначен для одновременного использования из нескольких горутин.
type Pager struct {
	fetch            FetchFunc
	pageSize         int
	prefetchDistance int

	index  int
	window []model.ItemSummary

	next      *worker.Future[[]model.ItemSummary]
	nextIndex int
}

func NewPager(fetch FetchFunc, pageSize, prefetchDistance int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultSettings.PageSize
	}
	if prefetchDistance < 0 {
		prefetchDistance = 0
	}
	return &Pager{fetch: fetch, pageSize: pageSize, prefetchDistance: prefetchDistance, index: -1}
}

// PageSize возвращает размер страницы.
func (p *Pager) PageSize() int { return p.pageSize }

// Page возвращает страницу n (с нуля). Пустой результат означает конец выборки.
func (p *Pager) Page(ctx context.Context, n int) ([]model.ItemSummary, error) {
	if n == p.index {
		return p.window, nil
	}

	var (
		rows []model.ItemSummary
		err  error
	)
	if p.next != nil && p.nextIndex == n {
		rows, err = p.next.Await(ctx)
		p.next = nil
		if err != nil && ctx.Err() == nil {
			// упреждающее чтение не удалось, читаем заново
			rows, err = p.fetch(ctx, n*p.pageSize, p.pageSize)
		}
	} else {
		p.next = nil
		rows, err = p.fetch(ctx, n*p.pageSize, p.pageSize)
	}
	if err != nil {
		return nil, err
	}
	p.index, p.window = n, rows
	return rows, nil
}

// At возвращает сводку в позиции pos; ok=false за концом выборки.
func (p *Pager) At(ctx context.Context, pos int) (model.ItemSummary, bool, error) {
	if pos < 0 {
		return model.ItemSummary{}, false, nil
	}
	n, off := pos/p.pageSize, pos%p.pageSize
	rows, err := p.Page(ctx, n)
	if err != nil {
		return model.ItemSummary{}, false, err
	}
	if off >= len(rows) {
		return model.ItemSummary{}, false, nil
	}
	if len(rows) == p.pageSize && off >= p.pageSize-p.prefetchDistance {
		p.prefetch(ctx, n+1)
	}
	return rows[off], true, nil
}

func (p *Pager) prefetch(ctx context.Context, n int) {
	if p.next != nil && p.nextIndex == n {
		return
	}
	offset, limit := n*p.pageSize, p.pageSize
	p.nextIndex = n
	p.next = worker.Go(ctx, func(ctx context.Context) ([]model.ItemSummary, error) {
		return p.fetch(ctx, offset, limit)
	})
}

// All обходит всю выборку начиная с первой страницы.
func (p *Pager) All(ctx context.Context) iter.Seq2[model.ItemSummary, error] {
	return func(yield func(model.ItemSummary, error) bool) {
		for pos := 0; ; pos++ {
			it, ok, err := p.At(ctx, pos)
			if err != nil {
				yield(model.ItemSummary{}, err)
				return
			}
			if !ok || !yield(it, nil) {
				return
			}
		}
	}
}

// Reset сбрасывает загруженную и упреждающую страницы; следующий запрос читает свежие данные.
func (p *Pager) Reset() {
	p.index, p.window = -1, nil
	p.next = nil
}
