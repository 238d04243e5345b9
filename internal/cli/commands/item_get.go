package commands

import (
	"context"
	"fmt"
	"strconv"

	"Flow/internal/config"
)

type itemGetCmd struct{}

func (itemGetCmd) Name() string        { return "item-get" }
func (itemGetCmd) Description() string { return "Показать запись целиком по id" }
func (itemGetCmd) Usage() string       { return "item-get <id>" }

func (itemGetCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return ErrUsage
	}
	it, err := newClient(cfg).Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "id:        %d\n", it.ID)
	fmt.Fprintf(Out, "kind:      %s\n", it.Kind)
	fmt.Fprintf(Out, "title:     %s\n", it.Title)
	fmt.Fprintf(Out, "edited:    %s\n", it.LastEdited)
	if it.Kind == "task" {
		fmt.Fprintf(Out, "priority:  %d\n", it.Priority)
		fmt.Fprintf(Out, "effort:    %dm\n", it.EstimatedEffort)
		if it.DueDate != nil {
			fmt.Fprintf(Out, "due:       %s\n", *it.DueDate)
		}
	}
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, it.Body)
	return nil
}

func init() { RegisterCmd(itemGetCmd{}) }
