package config

import (
	"context"
	"encoding/json"
	"errors"

	"winclink-go/bus"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key holding the board name
)

// EmbeddedConfigLookup resolves a board name to its raw JSON config.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Topic returns the retained topic for one config key.
func Topic(key string) bus.Topic { return bus.T(configPrefix, key) }

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig splits the board config into top-level keys and publishes
// each as a retained "config/<key>" message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("config: missing device ID in context")
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("config: no embedded config for device: " + device)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("config: embedded config is not a JSON object: " + err.Error())
	}
	for k, v := range m {
		conn.Publish(conn.NewMessage(Topic(k), v, true))
	}
	return nil
}

// Start publishes the config in the background. Failures are logged.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}

// Decode converts a bus payload (a decoded JSON value, raw bytes, or a
// typed struct) into dst.
func Decode[T any](src any, dst *T) error {
	switch v := src.(type) {
	case *T:
		*dst = *v
		return nil
	case T:
		*dst = v
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
