package commands

import (
	"context"
	"fmt"
	"strconv"

	"Flow/internal/cli/api"
	"Flow/internal/config"
)

type listCmd struct {
	kind string
}

func (c listCmd) Name() string { return c.kind + "s" }
func (c listCmd) Description() string {
	if c.kind == "task" {
		return "Показать страницу задач (по умолчанию по сроку)"
	}
	return "Показать страницу заметок (по умолчанию недавние первыми)"
}
func (c listCmd) Usage() string {
	if c.kind == "task" {
		return "tasks [page|all] [due|recent]"
	}
	return "notes [page|all] [recent|due]"
}

func (c listCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 2 {
		return ErrUsage
	}
	order := ""
	if len(args) == 2 {
		order = args[1]
	}
	if len(args) >= 1 && args[0] == "all" {
		return c.runAll(ctx, cfg, order)
	}

	page := 0
	if len(args) >= 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return ErrUsage
		}
		page = n
	}

	p, err := newClient(cfg).List(ctx, c.kind, order, page)
	if err != nil {
		return err
	}
	if len(p.Items) == 0 {
		fmt.Fprintln(Out, "Нет записей")
		return nil
	}
	for _, s := range p.Items {
		printSummary(s)
	}
	if p.HasMore {
		fmt.Fprintf(Out, "Следующая страница: %s %d\n", c.Name(), page+1)
	}
	return nil
}

// runAll печатает всю выборку одним потоком.
func (c listCmd) runAll(ctx context.Context, cfg *config.Config, order string) error {
	n := 0
	for s, err := range newClient(cfg).All(ctx, c.kind, order) {
		if err != nil {
			return err
		}
		printSummary(s)
		n++
	}
	if n == 0 {
		fmt.Fprintln(Out, "Нет записей")
		return nil
	}
	fmt.Fprintf(Out, "Всего: %d\n", n)
	return nil
}

func printSummary(s api.Summary) {
	fmt.Fprintf(Out, "- #%d  %s", s.ID, s.Title)
	if s.Abstract != "" {
		fmt.Fprintf(Out, "  (%s)", s.Abstract)
	}
	if s.Kind == "task" {
		due := "-"
		if s.DueDate != nil {
			due = *s.DueDate
		}
		fmt.Fprintf(Out, "  priority=%d effort=%dm due=%s", s.Priority, s.EstimatedEffort, due)
	}
	fmt.Fprintln(Out)
}

type countCmd struct{}

func (countCmd) Name() string        { return "count" }
func (countCmd) Description() string { return "Число записей (всех или одного вида)" }
func (countCmd) Usage() string       { return "count [note|task]" }

func (countCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	kind := ""
	if len(args) == 1 {
		kind = args[0]
	}
	n, err := newClient(cfg).Count(ctx, kind)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Всего: %d\n", n)
	return nil
}

func init() {
	RegisterCmd(listCmd{kind: "note"})
	RegisterCmd(listCmd{kind: "task"})
	RegisterCmd(countCmd{})
}
