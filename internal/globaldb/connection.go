package globaldb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syntropynet/globaldb/internal/globaldb/sqlite"
	"github.com/syntropynet/globaldb/pkg/globaldb"
)

// openDB opens the global DB file at path, seeding it from referencePath when it does not exist yet,
// and brings its schema to CurrentVersion.
func openDB(ctx context.Context, path, referencePath string, logger *zap.Logger) (*gorm.DB, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create global DB directory: %w", err)
		}
		if referencePath != "" {
			if err := copyFile(referencePath, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to seed global DB from %s: %w", referencePath, err)
			} else if err == nil {
				logger.Info("seeded global DB from reference", zap.String("reference", referencePath))
			}
		}
	}

	dbCon, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open global DB %s: %w", path, err)
	}

	if err := initialize(ctx, dbCon, logger); err != nil {
		_ = sqlite.Close(dbCon)
		return nil, err
	}
	return dbCon, nil
}

func initialize(ctx context.Context, dbCon *gorm.DB, logger *zap.Logger) error {
	return dbCon.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createSchema(tx); err != nil {
			return err
		}

		version, err := settingValue(tx, versionSetting, CurrentVersion)
		if err != nil {
			return fmt.Errorf("failed to read global DB version: %w", err)
		}
		if version > CurrentVersion {
			return fmt.Errorf("%w: found version %d, latest supported is %d", globaldb.ErrUnsupportedVersion, version, CurrentVersion)
		}
		if version < CurrentVersion {
			logger.Info("upgrading global DB", zap.Int("from", version), zap.Int("to", CurrentVersion))
			if err := upgrade(tx, version, logger); err != nil {
				return err
			}
		}
		return setSettingValue(tx, versionSetting, CurrentVersion)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// transaction runs fn in a transaction, retrying while another process holds the file lock.
// fn may run more than once and must not carry state between attempts.
func (h *Handler) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 15 * time.Second

	operation := func() error {
		err := h.dbCon.WithContext(ctx).Transaction(fn)
		if err != nil && !isBusyError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		h.logger.Warn("global DB is locked, retrying", zap.Error(err), zap.Duration("next_retry_in", next))
	}
	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
}

// ReadCtx runs fn inside a read transaction.
func (h *Handler) ReadCtx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return h.transaction(ctx, fn)
}

// WriteCtx runs fn inside a write transaction. Writers are serialized; fn must not open
// another scope on the handler since the only connection is held by tx.
func (h *Handler) WriteCtx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return h.transaction(ctx, fn)
}

// writeCtxUnchecked is WriteCtx with foreign key enforcement switched off for the duration of fn.
// SQLite ignores the pragma inside a transaction so it is toggled around it.
func (h *Handler) writeCtxUnchecked(ctx context.Context, fn func(tx *gorm.DB) error) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := h.dbCon.WithContext(ctx).Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
		return fmt.Errorf("failed to disable foreign keys: %w", err)
	}
	defer func() {
		if err := h.dbCon.WithContext(context.WithoutCancel(ctx)).Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			h.logger.Error("failed to re-enable foreign keys", zap.Error(err))
		}
	}()
	return h.transaction(ctx, fn)
}
