package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Kind - разновидность записи. Заметки и задачи живут в одной таблице
// и делят одно пространство первичных ключей.
type Kind string

const (
	KindNote Kind = "note"
	KindTask Kind = "task"
)

// Valid сообщает, известен ли вид записи.
func (k Kind) Valid() bool {
	return k == KindNote || k == KindTask
}

// Границы приоритета задачи.
const (
	MinPriority = 1
	MaxPriority = 10
)

// Item - заметка или задача пользователя.
// Ровно одно из BodyInline / BodyPath заполнено; для пустого тела BodyInline = "".
type Item struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Kind     Kind   `gorm:"type:varchar(8);not null;index"`
	Title    string `gorm:"not null"`
	Abstract string `gorm:"not null"`

	BodyInline *string `gorm:"type:text"`
	BodyPath   *string // имя файла относительно корня хранилища

	LastEdited time.Time `gorm:"not null;index"`

	// Поля планирования, осмысленны только для задач
	Priority        int        `gorm:"not null"`
	EstimatedEffort int        `gorm:"not null"` // в минутах
	DueDate         *time.Time `gorm:"index"`
}

// ItemSummary - облегчённая проекция Item для списков.
type ItemSummary struct {
	ID              int64
	Kind            Kind
	Title           string
	Abstract        string
	LastEdited      time.Time
	Priority        int
	EstimatedEffort int
	DueDate         *time.Time
}

// Summary возвращает проекцию записи для списков.
func (it *Item) Summary() ItemSummary {
	return ItemSummary{
		ID:              it.ID,
		Kind:            it.Kind,
		Title:           it.Title,
		Abstract:        it.Abstract,
		LastEdited:      it.LastEdited,
		Priority:        it.Priority,
		EstimatedEffort: it.EstimatedEffort,
		DueDate:         it.DueDate,
	}
}

const (
	abstractLimit  = 20
	abstractSuffix = "..."
)

// Abstract выводит краткое описание из тела: первая строка,
// обрезанная до 20 символов с "..." если длиннее.
func Abstract(body string) string {
	first, _, _ := strings.Cut(body, "\n")
	if utf8.RuneCountInString(first) <= abstractLimit {
		return first
	}
	runes := []rune(first)
	return string(runes[:abstractLimit]) + abstractSuffix
}
