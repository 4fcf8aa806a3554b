package metrics

import (
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// SinkConfig selects a sink type and carries its raw settings.
type SinkConfig struct {
	Type string         `json:"type" yaml:"type"`
	Conf map[string]any `json:"conf" yaml:"conf"`
}

// Config lists the sinks to record to.
type Config struct {
	Sinks []SinkConfig `json:"sinks" yaml:"sinks"`
}

// Factory builds a sink from its raw settings.
type Factory func(conf map[string]any) (MetricsSink, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// RegisterMetricsSink adds a sink factory identified by name.
func RegisterMetricsSink(name string, f Factory) error {
	if f == nil {
		return fmt.Errorf("metrics sink factory nil for %s", name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("metrics sink already registered for %s", name)
	}
	registry[name] = f
	return nil
}

func create(cfg SinkConfig) (MetricsSink, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown metrics sink type %q", cfg.Type)
	}
	return f(cfg.Conf)
}

// NewMetricsSink creates a MetricsSink from the configured sinks. No sinks
// yields a NopSink, several a MultiSink.
func NewMetricsSink(cfgs []SinkConfig) (MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		return create(cfgs[0])
	}
	sinks := make([]MetricsSink, len(cfgs))
	for i, c := range cfgs {
		s, err := create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

// Decode fills out using the json tags of its fields. Strings holding
// numbers or durations are converted, as env values always are strings.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
