package marshal

import (
	"go.uber.org/zap"

	"github.com/wippyai/marshal/codec"
	"github.com/wippyai/marshal/internal/logging"
	"github.com/wippyai/marshal/registry"
)

// Marshaler dumps and loads graphs against one registry and one set of
// options. It is safe for concurrent use.
type Marshaler struct {
	reg *registry.Registry
	enc *codec.Encoder
	dec *codec.Decoder
}

// New creates a Marshaler. A nil registry means the default registry.
func New(reg *registry.Registry, opts codec.Options) *Marshaler {
	if reg == nil {
		reg = registry.Default()
	}
	return &Marshaler{
		reg: reg,
		enc: codec.NewEncoder(reg, opts),
		dec: codec.NewDecoder(reg, opts),
	}
}

// Registry returns the registry the Marshaler resolves types through.
func (m *Marshaler) Registry() *registry.Registry {
	return m.reg
}

// Dump serializes v.
func (m *Marshaler) Dump(v any) ([]byte, error) {
	data, err := m.enc.Encode(v)
	log := logging.Named("marshal")
	if err != nil {
		log.Debug("dump failed", zap.Error(err))
		return nil, err
	}
	log.Debug("dump", zap.Int("bytes", len(data)))
	return data, nil
}

// Load deserializes a stream produced by Dump.
func (m *Marshaler) Load(data []byte) (any, error) {
	v, err := m.dec.Decode(data)
	log := logging.Named("marshal")
	if err != nil {
		log.Debug("load failed", zap.Int("bytes", len(data)), zap.Error(err))
		return nil, err
	}
	log.Debug("load", zap.Int("bytes", len(data)))
	return v, nil
}

// LoadInto deserializes data and assigns the root to the value dst
// points to.
func (m *Marshaler) LoadInto(data []byte, dst any) error {
	if err := m.dec.DecodeInto(data, dst); err != nil {
		logging.Named("marshal").Debug("load failed", zap.Int("bytes", len(data)), zap.Error(err))
		return err
	}
	return nil
}

var std = New(nil, codec.DefaultOptions())

// Dump serializes v with the default registry and options.
func Dump(v any) ([]byte, error) {
	return std.Dump(v)
}

// Load deserializes data with the default registry and options.
func Load(data []byte) (any, error) {
	return std.Load(data)
}

// LoadInto deserializes data into dst with the default registry and
// options.
func LoadInto(data []byte, dst any) error {
	return std.LoadInto(data, dst)
}

// RegisterType registers a type on the default registry.
func RegisterType(name string, ctor func() any, opts ...registry.Option) error {
	return registry.Default().Register(name, ctor, opts...)
}

// SetLogger replaces the package logger. Nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	logging.SetLogger(l)
}
