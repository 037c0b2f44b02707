package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

type testApp struct {
	app    *fiber.App
	db     *sqlx.DB
	tokens *auth.TokenIssuer
}

// newTestApp wires the real routes over a seeded in-memory database. tweak
// may adjust config and router options before wiring.
func newTestApp(t *testing.T, tweak ...func(*config.Config, *handlers.Options)) *testApp {
	t.Helper()
	cfg := config.Config{
		DBDriver:       "sqlite",
		DBDSN:          ":memory:",
		BcryptCost:     bcrypt.MinCost,
		TrackStock:     true,
		BodyLimitBytes: 1 << 20,
	}
	opts := handlers.Options{GlobalMax: 10_000, LoginMax: 1_000}
	for _, f := range tweak {
		f(&cfg, &opts)
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.Seed(context.Background(), db, bcrypt.MinCost))

	tokens := auth.NewTokenIssuer("test-secret", "storefront", time.Hour)
	deps := handlers.NewDeps(db, cfg, tokens, nil)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler, BodyLimit: cfg.BodyLimitBytes})
	handlers.Register(app, deps, opts)
	return &testApp{app: app, db: db, tokens: tokens}
}

func (a *testApp) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := a.tokens.Issue(userID)
	require.NoError(t, err)
	return tok.Token
}

// do sends body as JSON unless it is already a string.
func (a *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (a *testApp) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, a.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func (a *testApp) stock(t *testing.T, variantID string) int {
	t.Helper()
	var n int
	require.NoError(t, a.db.Get(&n, a.db.Rebind(`SELECT stock_quantity FROM product_variants WHERE id=?`), variantID))
	return n
}

type errResp struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	VariantID string `json:"variantId"`
}

func decodeErr(t *testing.T, body []byte) errResp {
	t.Helper()
	var e errResp
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	ReqID  string         `json:"req_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs collects the structured entries written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.SetOutput(buf)
	defer applog.SetOutput(os.Stdout)

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
