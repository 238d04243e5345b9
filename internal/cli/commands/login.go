package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"Flow/internal/cli/api"
	"Flow/internal/config"
)

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login (first login registers) and store auth cookie" }
func (loginCmd) Usage() string       { return "login <login> <password>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	uid, err := newClient(cfg).Login(ctx, args[0], args[1])
	if api.IsStatus(err, http.StatusUnauthorized) {
		return errors.New("invalid login or password")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Logged in successfully (user %d)\n", uid)
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Forget stored auth cookie" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if err := newClient(cfg).Logout(ctx); err != nil {
		// токен уже удалён локально
		fmt.Fprintf(Out, "server logout failed: %v\n", err)
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

type accountDeleteCmd struct{}

func (accountDeleteCmd) Name() string { return "account-delete" }
func (accountDeleteCmd) Description() string {
	return "Удалить аккаунт вместе со всеми заметками и задачами"
}
func (accountDeleteCmd) Usage() string { return "account-delete yes" }

func (accountDeleteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 || args[0] != "yes" {
		return ErrUsage
	}
	if err := newClient(cfg).DeleteAccount(ctx); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Account deleted")
	return nil
}

func init() {
	RegisterCmd(loginCmd{})
	RegisterCmd(logoutCmd{})
	RegisterCmd(accountDeleteCmd{})
}
