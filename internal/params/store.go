// Package params holds the live tunables of the return-to-launch controller.
package params

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Definition describes a tunable and its accepted range.
type Definition struct {
	Key         string  `json:"key"`
	Default     float64 `json:"default"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
}

// Definitions lists every registered parameter.
var Definitions = []Definition{
	{
		Key:         ports.ParamReturnAltitude,
		Default:     ports.DefaultReturnAltitude,
		Min:         0,
		Max:         150,
		Unit:        "m",
		Description: "Altitude above home to climb to before returning",
	},
	{
		Key:         ports.ParamDescendAltitude,
		Default:     ports.DefaultDescendAltitude,
		Min:         2,
		Max:         100,
		Unit:        "m",
		Description: "Altitude above home to descend to and loiter at",
	},
	{
		Key:         ports.ParamLandDelay,
		Default:     ports.DefaultLandDelay,
		Min:         -1,
		Max:         300,
		Unit:        "s",
		Description: "Loiter time before landing; -1 loiters until commanded, 0 lands immediately",
	},
}

// Lookup returns the definition registered under key.
func Lookup(key string) (Definition, bool) {
	for _, d := range Definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Values is the typed view of the parameter set, keyed like the autopilot.
type Values struct {
	ReturnAltitude  float64 `mapstructure:"RTL_RETURN_ALT" json:"RTL_RETURN_ALT" yaml:"RTL_RETURN_ALT"`
	DescendAltitude float64 `mapstructure:"RTL_DESCEND_ALT" json:"RTL_DESCEND_ALT" yaml:"RTL_DESCEND_ALT"`
	LandDelay       float64 `mapstructure:"RTL_LAND_DELAY" json:"RTL_LAND_DELAY" yaml:"RTL_LAND_DELAY"`
}

// Defaults returns the factory parameter values.
func Defaults() Values {
	return Values{
		ReturnAltitude:  ports.DefaultReturnAltitude,
		DescendAltitude: ports.DefaultDescendAltitude,
		LandDelay:       ports.DefaultLandDelay,
	}
}

func (v Values) asMap() map[string]float64 {
	return map[string]float64{
		ports.ParamReturnAltitude:  v.ReturnAltitude,
		ports.ParamDescendAltitude: v.DescendAltitude,
		ports.ParamLandDelay:       v.LandDelay,
	}
}

// Decode converts a loosely typed map (from YAML, JSON or a request body)
// into Values, starting from base. Keys absent from raw keep their base value.
func Decode(raw map[string]any, base Values) (Values, error) {
	for key := range raw {
		if _, ok := Lookup(key); !ok {
			return base, fmt.Errorf("%w: %s", domain.ErrUnknownParameter, key)
		}
	}

	out := base
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return base, err
	}
	if err := decoder.Decode(raw); err != nil {
		return base, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return out, nil
}

// Store is a concurrency-safe ports.ParameterStore with bounds checking.
// The guidance loop reads it every cycle while operators update it.
type Store struct {
	mu     sync.RWMutex
	values map[string]float64
}

var _ ports.ParameterStore = (*Store)(nil)

// NewStore creates a store holding the factory defaults.
func NewStore() *Store {
	return &Store{values: Defaults().asMap()}
}

// NewStoreFrom creates a store holding v. Out-of-range values are rejected.
func NewStoreFrom(v Values) (*Store, error) {
	s := NewStore()
	if err := s.SetValues(v); err != nil {
		return nil, err
	}
	return s, nil
}

// Float returns the current value of key.
func (s *Store) Float(key string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set updates a single parameter.
func (s *Store) Set(key string, value float64) error {
	if err := validate(key, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// SetValues replaces every parameter atomically; nothing changes on error.
func (s *Store) SetValues(v Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swap(v)
}

// Apply decodes raw and stores the result. Keys not in raw are untouched.
// Decoding and the swap happen under one lock so concurrent Sets are not lost.
func (s *Store) Apply(raw map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := Decode(raw, s.current())
	if err != nil {
		return err
	}
	return s.swap(next)
}

// Values returns the typed view of the current parameters.
func (s *Store) Values() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current()
}

func (s *Store) current() Values {
	return Values{
		ReturnAltitude:  s.values[ports.ParamReturnAltitude],
		DescendAltitude: s.values[ports.ParamDescendAltitude],
		LandDelay:       s.values[ports.ParamLandDelay],
	}
}

// swap validates v and installs it. The caller holds s.mu.
func (s *Store) swap(v Values) error {
	next := v.asMap()
	for key, value := range next {
		if err := validate(key, value); err != nil {
			return err
		}
	}
	s.values = next
	return nil
}

// Keys returns the registered keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validate(key string, value float64) error {
	def, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownParameter, key)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s=%g is not a finite number", domain.ErrParameterOutOfRange, key, value)
	}
	if value < def.Min || value > def.Max {
		return fmt.Errorf("%w: %s=%g not in [%g, %g]", domain.ErrParameterOutOfRange, key, value, def.Min, def.Max)
	}
	return nil
}
