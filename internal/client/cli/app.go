package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/dashapi/internal/client/client"
	"github.com/dmitrijs2005/dashapi/internal/client/config"
	"github.com/dmitrijs2005/dashapi/internal/client/queue"
	"github.com/dmitrijs2005/dashapi/internal/client/retry"
	"github.com/dmitrijs2005/dashapi/internal/client/services"
	"github.com/dmitrijs2005/dashapi/internal/client/tokens"
	"github.com/dmitrijs2005/dashapi/internal/logging"
)

type App struct {
	config     *config.Config
	client     *client.Client
	auth       services.AuthService
	accounting services.AccountingService
	closer     io.Closer
	log        logging.Logger
	reader     *bufio.Reader
	out        io.Writer
}

// NewApp opens the token store named by c and builds the API client on it.
// Logs go to stderr so command output on stdout stays machine-readable.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log, err := logging.New(c.LogFormat, c.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	store, closer, err := client.OpenStore(ctx, client.StoreConfig{
		RedisAddr:  c.RedisAddr,
		SessionKey: c.SessionKey,
		DBPath:     c.TokenDBPath,
	})
	if err != nil {
		log.Error(ctx, "error opening token store", "error", err)
		return nil, err
	}

	app, err := newApp(c, store, log, os.Stdin, os.Stdout)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	app.closer = closer
	return app, nil
}

func newApp(c *config.Config, store tokens.Store, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	a := &App{config: c, log: log, reader: bufio.NewReader(in), out: out}

	apiClient, err := client.New(ClientConfig(c), store,
		client.WithLogger(log),
		client.WithUnauthenticatedHandler(a.sessionEnded),
	)
	if err != nil {
		return nil, err
	}

	a.client = apiClient
	a.auth = services.NewAuthService(apiClient)
	a.accounting = services.NewAccountingService(apiClient)
	return a, nil
}

// ClientConfig maps the CLI configuration onto the client's.
func ClientConfig(c *config.Config) client.Config {
	return client.Config{
		BaseURL:        c.BaseURL,
		RefreshPath:    c.RefreshPath,
		RequestTimeout: c.RequestTimeout,
		ExpirySkew:     c.ExpirySkew,
		Queue: queue.Config{
			MaxInFlight:   c.MaxInFlight,
			QueueTimeout:  c.QueueTimeout,
			RatePerSecond: c.RatePerSecond,
			Burst:         c.RateBurst,
		},
		Retry: retry.Config{
			BaseDelay:   c.RetryBaseDelay,
			Multiplier:  2,
			MaxDelay:    c.RetryMaxDelay,
			MaxAttempts: c.RetryMaxAttempts,
		},
	}
}

func (a *App) sessionEnded(ctx context.Context) {
	fmt.Fprintln(a.out, "Session expired, please log in again.")
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.client.IsAuthenticated(ctx)
}

// Run executes the subcommand in args, or the REPL when args is empty.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.Close()

	if len(args) == 0 {
		fmt.Fprintf(a.out, "dashapi CLI for %s (type 'help' for commands)\n", a.client.BaseURL())
		runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
		return nil
	}
	return a.exec(ctx, args[0], args[1:])
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func (a *App) status(ctx context.Context) string {
	if a.isLoggedIn(ctx) {
		return "(logged in)"
	}
	return "(anonymous)"
}
