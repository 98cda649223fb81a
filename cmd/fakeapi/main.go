// Command fakeapi runs the in-process dashboard backend as a standalone
// server, seeded with one user, for trying the CLI locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/dmitrijs2005/dashapi/internal/fakeapi"
	"github.com/dmitrijs2005/dashapi/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("fakeapi", flag.ContinueOnError)

	addr := fs.String("a", "127.0.0.1:8000", "address to listen on")
	base := fs.String("base", "/api", "path prefix of every route")
	secret := fs.String("s", "dev-secret", "JWT signing key")
	accessTTL := fs.Duration("t", fakeapi.DefaultAccessTTL, "access token lifetime")
	refreshTTL := fs.Duration("r", fakeapi.DefaultRefreshTTL, "refresh token lifetime")
	username := fs.String("user", "demo", "seeded username")
	password := fs.String("password", "demo", "seeded password")
	tenant := fs.String("tenant", "demo", "tenant of the seeded user")
	level := fs.String("log-level", "info", "log level")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	log, err := logging.New(logging.FormatText, *level, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	api := fakeapi.New(*secret,
		fakeapi.WithAccessTTL(*accessTTL),
		fakeapi.WithRefreshTTL(*refreshTTL),
		fakeapi.WithBasePath(*base),
		fakeapi.WithLogger(log),
	)
	if _, err := api.AddUser(*username, *password, *tenant); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	api.AddAccount(*tenant, models.Account{Code: "1000", Name: "Cash", Type: "asset", Currency: "EUR", Balance: "0.00", IsActive: true})
	api.AddAccount(*tenant, models.Account{Code: "2000", Name: "Payables", Type: "liability", Currency: "EUR", Balance: "0.00", IsActive: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := api.ListenAndServe(ctx, *addr); err != nil {
		log.Error(ctx, "fake api stopped", "error", err)
		return 1
	}
	return 0
}
