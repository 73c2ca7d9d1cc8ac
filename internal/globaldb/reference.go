package globaldb

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/syntropynet/globaldb/internal/globaldb/sqlite"
)

// referenceSnapshot holds the asset tables of the packaged reference DB.
type referenceSnapshot struct {
	version    int
	assets     []Asset
	tokens     []EthereumTokenRow
	underlying []UnderlyingTokenRow
	details    []CommonAssetDetail
}

func (s *referenceSnapshot) identifiers() []string {
	ret := make([]string, len(s.assets))
	for i, a := range s.assets {
		ret[i] = a.Identifier
	}
	return ret
}

func (s *referenceSnapshot) addresses() []string {
	ret := make([]string, len(s.tokens))
	for i, t := range s.tokens {
		ret[i] = t.Address
	}
	return ret
}

// withReference opens the reference DB read only for the duration of fn. The handle is
// closed on every return path.
func (h *Handler) withReference(ctx context.Context, fn func(ref *gorm.DB) error) (err error) {
	if h.referencePath == "" {
		return errors.New("no reference DB configured")
	}
	if _, err := os.Stat(h.referencePath); err != nil {
		return fmt.Errorf("reference DB %s: %w", h.referencePath, err)
	}

	ref, err := sqlite.NewReadOnly(h.referencePath, 4)
	if err != nil {
		return fmt.Errorf("failed to open reference DB %s: %w", h.referencePath, err)
	}
	defer func() {
		if cerr := sqlite.Close(ref); cerr != nil {
			h.logger.Warn("failed to close reference DB", zap.Error(cerr))
		}
	}()

	return fn(ref.WithContext(ctx))
}

// loadReference reads the version and the four asset tables of the reference DB.
func (h *Handler) loadReference(ctx context.Context) (*referenceSnapshot, error) {
	var snapshot referenceSnapshot
	err := h.withReference(ctx, func(ref *gorm.DB) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			snapshot.version, err = settingValue(ref.WithContext(gctx), versionSetting, 0)
			return err
		})
		g.Go(func() error {
			return ref.WithContext(gctx).Model(&Asset{}).Order("rowid").Find(&snapshot.assets).Error
		})
		g.Go(func() error {
			return ref.WithContext(gctx).Model(&EthereumTokenRow{}).Order("rowid").Find(&snapshot.tokens).Error
		})
		g.Go(func() error {
			return ref.WithContext(gctx).Model(&UnderlyingTokenRow{}).Order("rowid").Find(&snapshot.underlying).Error
		})
		g.Go(func() error {
			return ref.WithContext(gctx).Model(&CommonAssetDetail{}).Order("rowid").Find(&snapshot.details).Error
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// referenceIdentifiers returns only the asset identifiers of the reference DB.
func (h *Handler) referenceIdentifiers(ctx context.Context) ([]string, error) {
	var ids []string
	err := h.withReference(ctx, func(ref *gorm.DB) error {
		return ref.Model(&Asset{}).Pluck("identifier", &ids).Error
	})
	return ids, err
}
