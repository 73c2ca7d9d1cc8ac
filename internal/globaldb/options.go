package globaldb

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/syntropynet/globaldb/internal/constants"
	"github.com/syntropynet/globaldb/pkg/globaldb"
)

type Options struct {
	ReferencePath string
	Logger        *zap.Logger
	Registerer    prometheus.Registerer
	Mapper        globaldb.IdentifierMapper
	Constants     *constants.Registry
}

type Option func(o *Options)

func (o *Options) Parse(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Mapper == nil {
		o.Mapper = globaldb.DefaultIdentifierMapper
	}
	if o.Constants == nil {
		o.Constants = constants.Default()
	}
}

// WithReferencePath sets the packaged reference DB used to seed new installs and as the reset baseline.
func WithReferencePath(path string) Option {
	return func(o *Options) {
		o.ReferencePath = path
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithRegisterer registers the handler metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *Options) {
		o.Registerer = reg
	}
}

func WithIdentifierMapper(mapper globaldb.IdentifierMapper) Option {
	return func(o *Options) {
		o.Mapper = mapper
	}
}

func WithConstants(registry *constants.Registry) Option {
	return func(o *Options) {
		o.Constants = registry
	}
}
