package log

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// LocalUserID is the fiber.Ctx locals key the auth middleware stores the caller's id under.
const LocalUserID = "user_id"

var current atomic.Pointer[zerolog.Logger]

func init() {
	zerolog.TimestampFieldName = "ts"
	zerolog.MessageFieldName = "msg"
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = time.RFC3339
	SetOutput(os.Stdout)
}

// SetOutput replaces the sink for all subsequent entries.
func SetOutput(w io.Writer) {
	l := zerolog.New(w).With().Timestamp().Logger()
	current.Store(&l)
}

// Setup points the logger at stdout plus an optional file and applies the level.
// The returned closer releases the file, if any.
func Setup(file, level string) (io.Closer, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if file == "" {
		SetOutput(os.Stdout)
		return nopCloser{}, nil
	}
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		SetOutput(os.Stdout)
		return nopCloser{}, err
	}
	SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Logger exposes the underlying logger for code outside a request.
func Logger() *zerolog.Logger { return current.Load() }

func write(ev *zerolog.Event, c *fiber.Ctx, action string, err error, fields map[string]any) {
	if ev == nil {
		return
	}
	if c != nil {
		ev = ev.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path())
		if s := c.Response().StatusCode(); s != 0 {
			ev = ev.Int("status", s)
		}
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
		if uid, ok := c.Locals(LocalUserID).(string); ok && uid != "" {
			ev = ev.Str("user_id", uid)
		}
	}
	if action != "" {
		ev = ev.Str("action", action)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}
	ev.Send()
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(current.Load().Info(), c, action, nil, fields)
}

// Audit entries are written regardless of the configured level.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(current.Load().Log().Str(zerolog.LevelFieldName, "audit"), c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(current.Load().Warn(), c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(current.Load().Error(), c, action, err, fields)
}
