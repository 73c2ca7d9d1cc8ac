package globaldb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syntropynet/globaldb/internal/constants"
	"github.com/syntropynet/globaldb/internal/globaldb/sqlite"
	"github.com/syntropynet/globaldb/pkg/globaldb"
)

var _ globaldb.GlobalDB = (*Handler)(nil)

type Handler struct {
	logger        *zap.Logger
	dbCon         *gorm.DB
	referencePath string
	mapper        globaldb.IdentifierMapper
	constants     *constants.Registry
	metrics       *metrics

	writeMu sync.Mutex
	resetMu sync.Mutex
}

// New opens the global DB at path and reloads the constant assets from it.
func New(ctx context.Context, path string, opts ...Option) (*Handler, error) {
	var o Options
	o.Parse(opts...)

	dbCon, err := openDB(ctx, path, o.ReferencePath, o.Logger)
	if err != nil {
		return nil, err
	}

	ret := &Handler{
		logger:        o.Logger,
		dbCon:         dbCon,
		referencePath: o.ReferencePath,
		mapper:        o.Mapper,
		constants:     o.Constants,
		metrics:       newMetrics(o.Registerer),
	}

	if err := ret.reloadConstantAssets(ctx); err != nil {
		ret.Close()
		return nil, err
	}
	return ret, nil
}

func (h *Handler) Close() error {
	return sqlite.Close(h.dbCon)
}

// Constants returns the registry of well-known asset descriptors mirrored from this DB.
func (h *Handler) Constants() *constants.Registry {
	return h.constants
}

var (
	instanceMu sync.Mutex
	instance   *Handler
)

// InitializeOnce constructs the process wide handler. The first successful call wins:
// later calls return the existing handler and ignore their arguments.
func InitializeOnce(ctx context.Context, path string, opts ...Option) (*Handler, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance, nil
	}
	h, err := New(ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	instance = h
	return instance, nil
}

// Default returns the handler built by InitializeOnce.
func Default() (*Handler, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		return nil, errors.New("global DB is not initialized")
	}
	return instance, nil
}

func (h *Handler) SchemaVersion(ctx context.Context) (int, error) {
	return h.SettingValue(ctx, versionSetting, CurrentVersion)
}

func (h *Handler) SettingValue(ctx context.Context, name string, defaultValue int) (int, error) {
	var value int
	err := h.ReadCtx(ctx, func(tx *gorm.DB) error {
		var err error
		value, err = settingValue(tx, name, defaultValue)
		return err
	})
	return value, err
}

func (h *Handler) SetSettingValue(ctx context.Context, name string, value int) error {
	return h.WriteCtx(ctx, func(tx *gorm.DB) error {
		if name == versionSetting {
			current, err := settingValue(tx, versionSetting, CurrentVersion)
			if err != nil {
				return err
			}
			if value < current {
				return fmt.Errorf("%w: global DB version can not decrease from %d to %d", globaldb.ErrInput, current, value)
			}
		}
		return setSettingValue(tx, name, value)
	})
}
