package globaldb

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/syntropynet/globaldb/internal/constants"
	"github.com/syntropynet/globaldb/pkg/globaldb"
)

type labelMapper struct{}

func (labelMapper) Identifier(address string) string { return "T:" + address }

func (labelMapper) Address(identifier string) (string, bool) { return "", false }

func TestOptions_Parse(t *testing.T) {
	registry := constants.NewRegistry(nil)
	reg := prometheus.NewRegistry()
	logger := zap.NewExample()

	tests := []struct {
		name  string
		opts  []Option
		check func(o Options) bool
	}{
		{
			"defaults",
			nil,
			func(o Options) bool {
				return o.Logger != nil &&
					o.Mapper == globaldb.DefaultIdentifierMapper &&
					o.Constants == constants.Default() &&
					o.Registerer == nil &&
					o.ReferencePath == ""
			},
		},
		{
			"overrides",
			[]Option{
				WithReferencePath("ref.db"),
				WithLogger(logger),
				WithRegisterer(reg),
				WithIdentifierMapper(labelMapper{}),
				WithConstants(registry),
			},
			func(o Options) bool {
				return o.Logger == logger &&
					o.Mapper == labelMapper{} &&
					o.Constants == registry &&
					o.Registerer == reg &&
					o.ReferencePath == "ref.db"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opt Options
			opt.Parse(tt.opts...)

			if !tt.check(opt) {
				t.Errorf("Parse() = %+v", opt)
			}
		})
	}
}
