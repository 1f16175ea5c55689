package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/docent/storage"
)

const (
	defaultSequenceBandwidth = 100
	conflictAttempts         = 5
	conflictDelay            = 2 * time.Millisecond
)

// Backend owns the BadgerDB handle shared by the repositories.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLogger routes Badger's printf-style logging into slog. Badger
// reports compaction and value log housekeeping at Info, which is noise
// next to ingestion logs, so Info is demoted to Debug.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// OpenBackend opens the chat database stored in dir, creating the
// directory when needed. With inMemory set, dir is ignored and nothing
// touches disk.
func OpenBackend(dir string, inMemory bool) (*Backend, error) {
	opts := badger.DefaultOptions(dir)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if dir == "" {
			return nil, fmt.Errorf("database directory required")
		}
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}

	opts.Logger = &badgerLogger{logger: slog.Default().With("component", "badger")}
	// Extracted text is small next to the block size
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat database: %w", err)
	}

	return &Backend{
		db:     db,
		logger: slog.Default().With("component", "badger-backend"),
	}, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return os.MkdirAll(dir, 0o755)
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// Update runs fn in a read-write transaction and commits it.
// Commits that lose a conflict against a concurrent writer are retried
// with a fresh transaction, so fn must be safe to run more than once.
func (b *Backend) Update(ctx context.Context, fn func(tx *badger.Txn) error) error {
	err := retry.Do(
		func() error {
			return b.WithTx(func(tx *badger.Txn) error {
				if err := fn(tx); err != nil {
					return err
				}
				return tx.Commit()
			}, true)
		},
		retry.Context(ctx),
		retry.Attempts(conflictAttempts),
		retry.Delay(conflictDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, badger.ErrConflict)
		}),
		retry.OnRetry(func(n uint, err error) {
			b.logger.Debug("retrying conflicted transaction", "attempt", n+1, "err", err)
		}),
	)
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return err
}
