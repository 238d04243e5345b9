package commands

import (
	"context"
	"fmt"
	"strconv"

	"Flow/internal/config"
)

type rankedCmd struct{}

func (rankedCmd) Name() string        { return "ranked" }
func (rankedCmd) Description() string { return "Задачи по срочности" }
func (rankedCmd) Usage() string       { return "ranked [limit]" }

func (rankedCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	limit, err := optionalLimit(args, 10)
	if err != nil {
		return err
	}
	list, err := newClient(cfg).Ranked(ctx, limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет задач")
		return nil
	}
	for _, r := range list {
		fmt.Fprintf(Out, "%10.1f ", r.Score)
		printSummary(r.Summary)
	}
	return nil
}

type digestCmd struct{}

func (digestCmd) Name() string        { return "digest" }
func (digestCmd) Description() string { return "Текст уведомления о задачах" }
func (digestCmd) Usage() string       { return "digest [limit]" }

func (digestCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	limit, err := optionalLimit(args, 5)
	if err != nil {
		return err
	}
	d, err := newClient(cfg).Digest(ctx, limit)
	if err != nil {
		return err
	}
	if d.Title == "" {
		fmt.Fprintln(Out, "Нет задач")
		return nil
	}
	fmt.Fprintln(Out, d.Title)
	fmt.Fprintln(Out, d.Text)
	for _, l := range d.Lines {
		fmt.Fprintln(Out, l)
	}
	return nil
}

type overdueCmd struct{}

func (overdueCmd) Name() string        { return "overdue" }
func (overdueCmd) Description() string { return "Просроченные задачи" }
func (overdueCmd) Usage() string       { return "overdue" }

func (overdueCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	list, err := newClient(cfg).Overdue(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "Просроченных задач нет")
		return nil
	}
	for _, s := range list {
		printSummary(s)
	}
	return nil
}

func optionalLimit(args []string, def int) (int, error) {
	switch len(args) {
	case 0:
		return def, nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return 0, ErrUsage
		}
		return n, nil
	}
	return 0, ErrUsage
}

func init() {
	RegisterCmd(rankedCmd{})
	RegisterCmd(digestCmd{})
	RegisterCmd(overdueCmd{})
}
