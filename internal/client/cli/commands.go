package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/dashapi/internal/client/client"
	"github.com/dmitrijs2005/dashapi/internal/client/models"
)

// getPassword is an indirection used to facilitate testing.
var getPassword = GetPassword

var ErrUsage = errors.New("usage")

const usage = `Commands:
  login <username>             log in and store the tokens
  register <username> <email>  create an account
  logout                       log out and drop the tokens
  whoami                       show the current user
  get <path>                   print an API resource as JSON
  accounts                     list all accounting accounts
  stats                        show client counters`

func (a *App) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(a.out, usage)
		return nil
	case "login":
		if len(args) != 1 {
			return fmt.Errorf("%w: login <username>", ErrUsage)
		}
		return a.Login(ctx, args[0])
	case "register":
		if len(args) != 2 {
			return fmt.Errorf("%w: register <username> <email>", ErrUsage)
		}
		return a.Register(ctx, args[0], args[1])
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("%w: get <path>", ErrUsage)
		}
		return a.Get(ctx, args[0])
	case "accounts":
		return a.Accounts(ctx)
	case "stats":
		return a.Stats(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) Login(ctx context.Context, username string) error {
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	if err := a.auth.Login(ctx, username, password); err != nil {
		a.log.Warn(ctx, "login unsuccessful", "username", username, "error", err)
		return err
	}
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Register(ctx context.Context, username, email string) error {
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	user, err := a.auth.Register(ctx, models.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s\n", user.Username)
	return nil
}

// Logout reports a failed backend call but the local tokens are gone either way.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.log.Warn(ctx, "logout incomplete", "error", err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.auth.Me(ctx)
	if err != nil {
		return err
	}
	if user.Tenant != "" {
		fmt.Fprintf(a.out, "%s (%s)\n", user.Username, user.Tenant)
		return nil
	}
	fmt.Fprintln(a.out, user.Username)
	return nil
}

func (a *App) Get(ctx context.Context, path string) error {
	raw, err := client.Get[json.RawMessage](ctx, a.client, path, nil)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("%w: %w", client.ErrDecode, err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(a.out)
	return err
}

func (a *App) Accounts(ctx context.Context) error {
	accounts, err := a.accounting.AllAccounts(ctx, nil)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tBALANCE")
	for _, acc := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", acc.Code, acc.Name, acc.Type, acc.Balance)
	}
	return tw.Flush()
}

func (a *App) Stats(ctx context.Context) error {
	s := a.client.Stats()
	fmt.Fprintf(a.out, "requests=%d attempts=%d retries=%d replays=%d refreshes=%d refresh_failures=%d queue_timeouts=%d unauthenticated=%d\n",
		s.Requests, s.Attempts, s.Retries, s.Replays, s.Refreshes, s.RefreshFailures, s.QueueTimeouts, s.Unauthenticated)
	return nil
}
