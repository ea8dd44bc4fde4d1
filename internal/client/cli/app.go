package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/client/store"
	"github.com/dmitrijs2005/storefront/internal/filex"
	"github.com/dmitrijs2005/storefront/internal/logging"

	_ "modernc.org/sqlite"
)

// maxImageSize caps a single product image read from disk.
const maxImageSize = 5 << 20

type App struct {
	config     *config.Config
	log        logging.Logger
	db         *sql.DB
	storefront *store.Storefront
	reader     *bufio.Reader
	out        io.Writer
}

// NewApp opens the session database, builds the API client and the stores.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if isFileDSN(cfg.DatabaseDSN) {
		if err := filex.EnsureParentDir(cfg.DatabaseDSN); err != nil {
			return nil, err
		}
	}

	db, err := client.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	api := client.NewHTTPClient(client.HTTPConfig{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})

	sf := store.New(api, services.NewSessionStore(db), log)

	a := newApp(cfg, log, sf, os.Stdin, os.Stdout)
	a.db = db
	return a, nil
}

func newApp(cfg *config.Config, log logging.Logger, sf *store.Storefront, in io.Reader, out io.Writer) *App {
	return &App{
		config:     cfg,
		log:        log,
		storefront: sf,
		reader:     bufio.NewReader(in),
		out:        out,
	}
}

// Run restores the persisted session and blocks in the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	restored, err := a.storefront.Auth.Restore(ctx)
	if err != nil {
		a.log.Warn(ctx, "session not restored", "error", err)
	}
	if restored {
		a.warmCatalog(ctx)
		fmt.Fprintf(a.out, "Welcome back, %s\n", a.userName())
	}

	printlnFn("Welcome to the storefront CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(lineReader{a.reader}))
	return nil
}

// Close releases the API client and the session database.
func (a *App) Close() error {
	err := a.storefront.Close()
	if a.db != nil {
		if dbErr := a.db.Close(); err == nil {
			err = dbErr
		}
	}
	return err
}

// warmCatalog loads the catalog so cart totals can tell orphans apart.
// Failures are only logged; the next listing retries.
func (a *App) warmCatalog(ctx context.Context) {
	if _, err := a.storefront.Products.FetchCatalog(ctx); err != nil {
		a.log.Warn(ctx, "catalog not loaded", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.storefront.Auth.IsAuthenticated()
}

func (a *App) userName() string {
	u := a.storefront.Auth.User()
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

func (a *App) status() string {
	if !a.isLoggedIn() {
		return "(guest)"
	}
	sf := a.storefront
	return fmt.Sprintf("(%s, cart: %d)", a.userName(), sf.Cart.Quantity(sf.Products.Catalog()))
}

// lineReader hands the scanner one line per Read, leaving the rest buffered
// for the prompts commands issue on the same reader.
type lineReader struct {
	r *bufio.Reader
}

func (l lineReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		c, err := l.r.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = c
		n++
		if c == '\n' {
			break
		}
	}
	return n, nil
}

func isFileDSN(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}
