package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/signupd/internal/client/client"
)

// List prints the registered accounts.
func (a *App) List(ctx context.Context) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	accounts, err := a.client.ListAccounts(rctx)
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w: listing accounts needs the admin token (-k)", err)
	}
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No accounts.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tCREATED")
	for _, acc := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", acc.ID, acc.Email, acc.Name, acc.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// Ping checks that the server answers and updates the mode accordingly.
func (a *App) Ping(ctx context.Context) error {
	rctx, cancel := a.requestCtx(ctx)
	defer cancel()

	if err := a.client.Ping(rctx); err != nil {
		a.setMode(ModeOffline)
		return err
	}
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "OK")
	return nil
}
