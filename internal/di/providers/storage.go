package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/elephoto/elephoto-server/internal/config"
	"github.com/elephoto/elephoto-server/internal/logger"
	"github.com/elephoto/elephoto-server/internal/media/images"
)

// ObjectStorages groups the two photo buckets.
type ObjectStorages struct {
	// Originals are private and only streamed after payment.
	Originals *images.Storage
	// Displays are the public watermarked copies.
	Displays *images.Storage
}

// ProvideObjectStorages provides both photo buckets under the storage path.
func ProvideObjectStorages(i do.Injector) (*ObjectStorages, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	originals, err := images.NewStorage(cfg.Storage.BasePath, "originals")
	if err != nil {
		return nil, fmt.Errorf("original storage: %w", err)
	}

	displays, err := images.NewStorage(cfg.Storage.BasePath, "displays")
	if err != nil {
		return nil, fmt.Errorf("display storage: %w", err)
	}

	log.Info("Object storages initialized",
		"originals", originals.Root(),
		"displays", displays.Root(),
	)

	return &ObjectStorages{
		Originals: originals,
		Displays:  displays,
	}, nil
}

// ProvideImageProcessor provides the display-copy renderer.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(images.DefaultProcessorOptions(), log.Component("images")), nil
}
