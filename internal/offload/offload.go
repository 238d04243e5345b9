// Package offload решает, хранить ли тело записи в строке таблицы или выносить в файл.
package offload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"Flow/internal/apperr"
	"Flow/internal/model"
)

// DefaultThreshold - максимальная длина тела (в символах), хранимого в строке таблицы.
const DefaultThreshold = 1024

// Body - результат размещения тела: заполнено ровно одно поле.
type Body struct {
	Inline *string
	Path   *string
}

// Policy размещает тела записей в корне хранилища.
type Policy struct {
	root      string
	threshold int
	now       func() time.Time
}

// Option настраивает Policy.
type Option func(*Policy)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

// WithThreshold задаёт порог выноса в файл.
func WithThreshold(n int) Option {
	return func(p *Policy) { p.threshold = n }
}

// New создаёт политику с корнем root, создавая каталог при необходимости.
func New(root string, opts ...Option) (*Policy, error) {
	if root == "" {
		return nil, errors.New("empty storage root")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	p := &Policy{root: root, threshold: DefaultThreshold, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Root возвращает корень хранилища.
func (p *Policy) Root() string { return p.root }

// Threshold возвращает порог выноса в файл.
func (p *Policy) Threshold() int { return p.threshold }

// FileName строит имя файла {kind}-{userId}-{itemId}-{timestampMillis}.txt.
func FileName(kind model.Kind, userID, itemID int64, ts time.Time) string {
	return fmt.Sprintf("%s-%d-%d-%d.txt", kind, userID, itemID, ts.UnixMilli())
}

// Store размещает body: длинное тело пишется в новый файл, короткое остаётся в строке.
func (p *Policy) Store(kind model.Kind, userID, itemID int64, body string) (Body, error) {
	if utf8.RuneCountInString(body) <= p.threshold {
		b := body
		return Body{Inline: &b}, nil
	}
	name, err := p.writeUnique(kind, userID, itemID, body)
	if err != nil {
		return Body{}, err
	}
	return Body{Path: &name}, nil
}

// writeUnique создаёт файл эксклюзивно; при совпадении имени сдвигает метку на миллисекунду.
func (p *Policy) writeUnique(kind model.Kind, userID, itemID int64, body string) (string, error) {
	ts := p.now()
	for attempt := 0; attempt < 1000; attempt++ {
		name := FileName(kind, userID, itemID, ts)
		f, err := os.OpenFile(filepath.Join(p.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			ts = ts.Add(time.Millisecond)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create body file: %w", err)
		}
		if _, err := f.WriteString(body); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("write body file: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("close body file: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no free body file name for %s %d/%d", kind, userID, itemID)
}

// Load восстанавливает тело. Отсутствующий файл - apperr.ErrNotFound.
func (p *Policy) Load(inline, path *string) (string, error) {
	if inline != nil {
		return *inline, nil
	}
	if path == nil {
		return "", nil
	}
	b, err := os.ReadFile(p.resolve(*path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.Wrap(apperr.KindNotFound, fmt.Sprintf("body file %q", *path), err)
		}
		return "", fmt.Errorf("read body file: %w", err)
	}
	return string(b), nil
}

// LoadItem - Load для записи.
func (p *Policy) LoadItem(it *model.Item) (string, error) {
	return p.Load(it.BodyInline, it.BodyPath)
}

// Remove удаляет файл тела; отсутствие файла ошибкой не считается.
func (p *Policy) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(p.resolve(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// resolve не выпускает путь за пределы корня.
func (p *Policy) resolve(path string) string {
	return filepath.Join(p.root, filepath.Base(path))
}
