package di_test

import (
	"context"
	"errors"
	"sync"
)

// Shared wiring models for the container tests, in the shape of a small web
// application: a logger, a per-request database session, and a repository.

type Logger interface {
	Log(msg string)
}

type ConsoleLogger struct {
	mu   sync.Mutex
	logs []string
}

func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{}
}

func (c *ConsoleLogger) Log(msg string) {
	c.mu.Lock()
	c.logs = append(c.logs, msg)
	c.mu.Unlock()
}

type Database struct {
	Logger Logger
	closed bool
}

func NewDatabase(l Logger) *Database {
	return &Database{Logger: l}
}

func (d *Database) Close() error {
	d.closed = true
	return nil
}

type UserRepository struct {
	DB *Database
}

func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{DB: db}
}

// closeRecorder captures teardown order across instances.
type closeRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *closeRecorder) record(name string) {
	r.mu.Lock()
	r.order = append(r.order, name)
	r.mu.Unlock()
}

func (r *closeRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// tracked is a disposable fixture that records its teardown and optionally
// fails it.
type tracked struct {
	name string
	rec  *closeRecorder
	fail error
}

func (t *tracked) Close() error {
	t.rec.record(t.name)
	return t.fail
}

// ctxTracked exposes only context-aware teardown.
type ctxTracked struct {
	name string
	rec  *closeRecorder
	fail error
}

func (t *ctxTracked) Shutdown(_ context.Context) error {
	t.rec.record(t.name)
	return t.fail
}

var errBoom = errors.New("boom")
