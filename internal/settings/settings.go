// Package settings holds the user's notification preferences and the stores
// that persist them.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

// Key is the storage key for the settings blob.
const Key = "notification-settings"

var (
	ErrInvalidSettings = errors.New("invalid notification settings")
	// ErrNotFound is returned by backends that hold no value for Key. Stores
	// translate it into the defaults.
	ErrNotFound = errors.New("settings not found")
)

type Frequency string

const (
	FrequencyRealtime Frequency = "realtime"
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// NotificationSettings are the criteria used to generate notifications.
type NotificationSettings struct {
	Enabled              bool      `json:"enabled"`
	Frequency            Frequency `json:"frequency"`
	Countries            []string  `json:"countries"`
	ThematicPriorities   []string  `json:"thematicPriorities"`
	FundingTypes         []string  `json:"fundingTypes"`
	BudgetThreshold      float64   `json:"budgetThreshold"`
	StatusFilter         []string  `json:"statusFilter"`
	EmailNotifications   bool      `json:"emailNotifications"`
	BrowserNotifications bool      `json:"browserNotifications"`
}

func Defaults() NotificationSettings {
	return NotificationSettings{
		Enabled:              true,
		Frequency:            FrequencyDaily,
		Countries:            []string{},
		ThematicPriorities:   []string{},
		FundingTypes:         []string{},
		BudgetThreshold:      100000,
		StatusFilter:         []string{"Open", "Forthcoming"},
		EmailNotifications:   false,
		BrowserNotifications: true,
	}
}

// Validate checks the frequency and threshold.
func (s NotificationSettings) Validate() error {
	switch s.Frequency {
	case FrequencyRealtime, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidSettings, s.Frequency)
	}
	if s.BudgetThreshold < 0 {
		return fmt.Errorf("%w: budget threshold must not be negative", ErrInvalidSettings)
	}
	return nil
}

// normalized replaces nil lists with empty ones so the JSON form is stable.
func (s NotificationSettings) normalized() NotificationSettings {
	s.Frequency = Frequency(strings.ToLower(string(s.Frequency)))
	if s.Countries == nil {
		s.Countries = []string{}
	}
	if s.ThematicPriorities == nil {
		s.ThematicPriorities = []string{}
	}
	if s.FundingTypes == nil {
		s.FundingTypes = []string{}
	}
	if s.StatusFilter == nil {
		s.StatusFilter = []string{}
	}
	return s
}

// Store persists NotificationSettings. Load returns the defaults when
// nothing usable is stored.
type Store interface {
	Load(ctx context.Context) (NotificationSettings, error)
	Save(ctx context.Context, s NotificationSettings) error
}

// Decode parses a stored blob. Fields missing from the blob keep their
// default values; malformed data yields the defaults.
func Decode(data []byte) NotificationSettings {
	s := Defaults()
	if len(data) == 0 {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("[Settings] stored value is malformed, using defaults: %v", err)
		return Defaults()
	}
	return s.normalized()
}

// Encode validates s and returns its stored form.
func Encode(s NotificationSettings) ([]byte, error) {
	s = s.normalized()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return data, nil
}

// MemoryStore keeps the encoded settings in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (NotificationSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Decode(m.data), nil
}

func (m *MemoryStore) Save(ctx context.Context, s NotificationSettings) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}
