package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/8848digital/GDP-Forecast/model"
	"github.com/8848digital/GDP-Forecast/timeseries"
)

// Key identifies an override: one spec per family, frequency and sector.
type Key struct {
	Family model.Family
	Kind   timeseries.Frequency
	Sector string
}

// String returns family:kind:sector with the sector normalised.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Family, k.Kind, timeseries.NormalizeSector(k.Sector))
}

// OverrideStore returns a previously chosen spec for a key.
type OverrideStore interface {
	Lookup(ctx context.Context, key Key) (model.Spec, bool, error)
}

// OverrideWriter persists a spec chosen by a live search.
type OverrideWriter interface {
	Save(ctx context.Context, key Key, spec model.Spec) error
}

// MapOverrides is an in-memory override table.
type MapOverrides struct {
	mu    sync.RWMutex
	specs map[string]model.Spec
}

// NewMapOverrides creates an empty table.
func NewMapOverrides() *MapOverrides {
	return &MapOverrides{specs: make(map[string]model.Spec)}
}

// Lookup implements OverrideStore.
func (m *MapOverrides) Lookup(_ context.Context, key Key) (model.Spec, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.specs[key.String()]
	return spec, ok, nil
}

// Save implements OverrideWriter.
func (m *MapOverrides) Save(_ context.Context, key Key, spec model.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specs[key.String()] = spec
	return nil
}

// Len returns the number of entries.
func (m *MapOverrides) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.specs)
}

// overrideFile is family -> kind -> sector -> parameters.
type overrideFile map[string]map[string]map[string]yaml.Node

type esEntry struct {
	Trend           string `yaml:"trend"`
	Seasonal        string `yaml:"seasonal"`
	SeasonalPeriods int    `yaml:"seasonal_periods"`
}

// LoadOverrides reads an override table from a YAML file.
func LoadOverrides(path string) (*MapOverrides, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseOverrides(f)
}

// ParseOverrides reads an override table:
//
//	holt_winters:
//	  annual:
//	    Manufacturing: {trend: add, seasonal: none, seasonal_periods: 3}
//	arima:
//	  quarterly:
//	    Construction: {stepwise: true, seasonal: true, period: 4}
func ParseOverrides(r io.Reader) (*MapOverrides, error) {
	var doc overrideFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode overrides: %w", err)
	}

	out := NewMapOverrides()
	for famName, kinds := range doc {
		family, err := model.ParseFamily(famName)
		if err != nil {
			return nil, err
		}
		for kindName, sectors := range kinds {
			kind, err := timeseries.ParseFrequency(kindName)
			if err != nil {
				return nil, err
			}
			for sector, node := range sectors {
				spec, err := decodeSpec(family, &node)
				if err != nil {
					return nil, fmt.Errorf("override %s/%s/%s: %w", famName, kindName, sector, err)
				}
				key := Key{Family: family, Kind: kind, Sector: sector}
				if err := out.Save(context.Background(), key, spec); err != nil {
					return nil, fmt.Errorf("override %s: %w", key, err)
				}
			}
		}
	}
	return out, nil
}

func decodeSpec(family model.Family, node *yaml.Node) (model.Spec, error) {
	if family == model.AutoArima {
		var a model.Arima
		if err := node.Decode(&a); err != nil {
			return model.Spec{}, err
		}
		return model.NewArima(a), nil
	}

	var e esEntry
	if err := node.Decode(&e); err != nil {
		return model.Spec{}, err
	}
	trend, err := model.ParseComponent(e.Trend)
	if err != nil {
		return model.Spec{}, err
	}
	seasonal, err := model.ParseComponent(e.Seasonal)
	if err != nil {
		return model.Spec{}, err
	}
	return model.NewHoltWinters(trend, seasonal, e.SeasonalPeriods), nil
}

// DefaultRedisPrefix namespaces override keys.
const DefaultRedisPrefix = "gdpforecast:override:"

// RedisOverrides keeps overrides in Redis as JSON specs.
type RedisOverrides struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisOverrides creates a Redis-backed store. A ttl of zero keeps
// entries until they are overwritten.
func NewRedisOverrides(client redis.Cmdable, ttl time.Duration) *RedisOverrides {
	return &RedisOverrides{client: client, prefix: DefaultRedisPrefix, ttl: ttl}
}

func (r *RedisOverrides) key(k Key) string {
	return r.prefix + k.String()
}

// Lookup implements OverrideStore. A missing key is not an error.
func (r *RedisOverrides) Lookup(ctx context.Context, key Key) (model.Spec, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Spec{}, false, nil
	}
	if err != nil {
		return model.Spec{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var spec model.Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return model.Spec{}, false, fmt.Errorf("decode override %s: %w", key, err)
	}
	if err := spec.Validate(); err != nil {
		return model.Spec{}, false, fmt.Errorf("override %s: %w", key, err)
	}
	return spec, true, nil
}

// Save implements OverrideWriter.
func (r *RedisOverrides) Save(ctx context.Context, key Key, spec model.Spec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Chain consults stores in order and returns the first hit.
type Chain []OverrideStore

// Lookup implements OverrideStore. A failing store is reported only when
// no later store has the key.
func (c Chain) Lookup(ctx context.Context, key Key) (model.Spec, bool, error) {
	var errs []error
	for _, store := range c {
		spec, ok, err := store.Lookup(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return spec, true, nil
		}
	}
	return model.Spec{}, false, errors.Join(errs...)
}
