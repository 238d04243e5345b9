package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"Flow/internal/cli/api"
	"Flow/internal/config"
)

type itemSaveCmd struct {
	kind string
}

func (c itemSaveCmd) Name() string { return c.kind + "-save" }
func (c itemSaveCmd) Description() string {
	if c.kind == "task" {
		return "Создать или обновить задачу (срок в RFC3339)"
	}
	return "Создать или обновить заметку"
}
func (c itemSaveCmd) Usage() string {
	if c.kind == "task" {
		return "task-save [-id N] [-priority 1..10] [-effort min] [-due RFC3339] <title> [body]"
	}
	return "note-save [-id N] <title> [body]"
}

func (c itemSaveCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	id := fs.Int64("id", 0, "id записи для обновления")
	req := api.SaveRequest{Kind: c.kind}
	if c.kind == "task" {
		fs.IntVar(&req.Priority, "priority", 1, "приоритет 1..10")
		fs.IntVar(&req.EstimatedEffort, "effort", 0, "оценка в минутах")
		fs.StringVar(&req.DueDate, "due", "", "срок (RFC3339)")
	}
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) < 1 || strings.TrimSpace(rest[0]) == "" {
		return ErrUsage
	}
	req.ID = *id
	req.Title = rest[0]
	req.Body = strings.Join(rest[1:], " ")

	saved, err := newClient(cfg).Save(ctx, req)
	if err != nil {
		return err
	}
	if req.ID == 0 {
		fmt.Fprintf(Out, "Created: #%d\n", saved)
	} else {
		fmt.Fprintf(Out, "Updated: #%d\n", saved)
	}
	return nil
}

type itemDeleteCmd struct{}

func (itemDeleteCmd) Name() string        { return "item-delete" }
func (itemDeleteCmd) Description() string { return "Удалить записи по id" }
func (itemDeleteCmd) Usage() string       { return "item-delete <id> [id...]" }

func (itemDeleteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return ErrUsage
		}
		ids = append(ids, id)
	}
	n, err := newClient(cfg).Delete(ctx, ids)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Deleted: %d\n", n)
	return nil
}

func init() {
	RegisterCmd(itemSaveCmd{kind: "note"})
	RegisterCmd(itemSaveCmd{kind: "task"})
	RegisterCmd(itemDeleteCmd{})
}
