// Package board defines the GPIO capability consumed by chip drivers, plus a registry of board
// models that provide it.
package board

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/eeprom93cx6/logging"
	"go.viam.com/eeprom93cx6/utils"
)

// A Board exposes named GPIO pins.
type Board interface {
	// GPIOPinByName returns a GPIOPin by name.
	GPIOPinByName(name string) (GPIOPin, error)

	// Close releases every pin the board has handed out.
	Close(ctx context.Context) error
}

// A Constructor builds a board of one model from its native config.
type Constructor[ConfigT any] func(ctx context.Context, conf ConfigT, logger logging.Logger) (Board, error)

// Registration describes how to build a board model.
type Registration[ConfigT any] struct {
	Constructor Constructor[ConfigT]
}

type creator func(ctx context.Context, path string, attributes utils.AttributeMap, logger logging.Logger) (Board, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]creator{}
)

// RegisterBoard registers a board model with its construction info. Attributes in a board
// config are decoded into ConfigT and validated before the constructor runs.
func RegisterBoard[ConfigT any](model string, reg Registration[ConfigT]) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, old := registry[model]; old {
		panic(errors.Errorf("trying to register two boards with same model: %q", model))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for model: %q", model))
	}
	registry[model] = func(
		ctx context.Context,
		path string,
		attributes utils.AttributeMap,
		logger logging.Logger,
	) (Board, error) {
		native, err := utils.TransformAttributeMap[ConfigT](attributes)
		if err != nil {
			return nil, errors.Wrapf(err, "error converting attributes for board model %q", model)
		}
		if validator, ok := any(native).(utils.ConfigValidator); ok {
			if _, err := validator.Validate(path); err != nil {
				return nil, err
			}
		}
		return reg.Constructor(ctx, native, logger)
	}
}

// DeregisterBoard removes a previously registered board model.
func DeregisterBoard(model string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, model)
}

// RegisteredModels returns the sorted names of every registered board model.
func RegisteredModels() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	models := make([]string, 0, len(registry))
	for model := range registry {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// NewBoard builds the board described by conf.
func NewBoard(ctx context.Context, conf Config, logger logging.Logger) (Board, error) {
	registryMu.RLock()
	create, ok := registry[conf.Model]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown board model %q (registered: %v)", conf.Model, RegisteredModels())
	}
	return create(ctx, "board.attributes", conf.Attributes, logger.Sublogger(conf.Model))
}
