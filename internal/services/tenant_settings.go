package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"productmap/internal/matching"
	"productmap/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SettingMatchOptions = "import.match_options"
	SettingBatchSize    = "import.batch_size"

	maxBatchSize = 10000
)

// MatchSettings is the per-tenant import configuration
type MatchSettings struct {
	Options   matching.Options `json:"match_options"`
	BatchSize int              `json:"batch_size"`
}

// SettingsValidationError rejects a settings update
type SettingsValidationError struct {
	Err error
}

func (e *SettingsValidationError) Error() string { return e.Err.Error() }

func (e *SettingsValidationError) Unwrap() error { return e.Err }

type TenantSettingsService struct {
	db               *gorm.DB
	defaultBatchSize int
}

func NewTenantSettingsService(db *gorm.DB, defaultBatchSize int) *TenantSettingsService {
	return &TenantSettingsService{db: db, defaultBatchSize: defaultBatchSize}
}

// GetSetting retrieves a specific setting for a tenant
func (s *TenantSettingsService) GetSetting(ctx context.Context, tenantID uuid.UUID, key string) (*models.TenantSetting, error) {
	var setting models.TenantSetting
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND setting_key = ? AND is_active = true", tenantID, key).
		First(&setting).Error

	if err != nil {
		return nil, err
	}

	return &setting, nil
}

// SetSetting creates or updates a setting for a tenant
func (s *TenantSettingsService) SetSetting(ctx context.Context, tenantID uuid.UUID, key string, value *string, settingType string) error {
	setting := models.TenantSetting{
		TenantID:     tenantID,
		SettingKey:   key,
		SettingValue: value,
		SettingType:  settingType,
		IsActive:     true,
	}

	return s.db.WithContext(ctx).
		Where("tenant_id = ? AND setting_key = ?", tenantID, key).
		Assign(setting).
		FirstOrCreate(&setting).Error
}

// GetMatchSettings returns the tenant's match options and batch size,
// falling back to defaults for anything not stored
func (s *TenantSettingsService) GetMatchSettings(ctx context.Context, tenantID uuid.UUID) (*MatchSettings, error) {
	values := make(map[string]*string, 2)
	for _, key := range []string{SettingMatchOptions, SettingBatchSize} {
		setting, err := s.GetSetting(ctx, tenantID, key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load setting %s: %w", key, err)
		}
		values[key] = setting.SettingValue
	}

	settings := decodeMatchSettings(values, s.defaultBatchSize)
	return &settings, nil
}

// UpdateMatchSettings stores new settings. Methods are toggled one at a time
// against the stored options, so switching off every method keeps the last
// one that was switched off.
func (s *TenantSettingsService) UpdateMatchSettings(ctx context.Context, tenantID uuid.UUID, update MatchSettings) (*MatchSettings, error) {
	current, err := s.GetMatchSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	next, err := mergeMatchSettings(*current, update)
	if err != nil {
		return nil, err
	}

	optionsJSON, err := json.Marshal(next.Options)
	if err != nil {
		return nil, err
	}
	optionsValue := string(optionsJSON)
	batchValue := strconv.Itoa(next.BatchSize)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txService := &TenantSettingsService{db: tx, defaultBatchSize: s.defaultBatchSize}
		if err := txService.SetSetting(ctx, tenantID, SettingMatchOptions, &optionsValue, "json"); err != nil {
			return err
		}
		return txService.SetSetting(ctx, tenantID, SettingBatchSize, &batchValue, "int")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save match settings: %w", err)
	}
	return &next, nil
}

func decodeMatchSettings(values map[string]*string, defaultBatchSize int) MatchSettings {
	settings := MatchSettings{Options: matching.DefaultOptions(), BatchSize: defaultBatchSize}

	if raw := values[SettingMatchOptions]; raw != nil && *raw != "" {
		var opts matching.Options
		if err := json.Unmarshal([]byte(*raw), &opts); err == nil && opts.Validate() == nil {
			settings.Options = opts
		}
	}
	if raw := values[SettingBatchSize]; raw != nil {
		if n, err := strconv.Atoi(*raw); err == nil && n > 0 {
			settings.BatchSize = n
		}
	}
	return settings
}

func mergeMatchSettings(current, update MatchSettings) (MatchSettings, error) {
	next := current
	next.Options.Priority = append([]matching.Method(nil), current.Options.Priority...)

	for _, m := range matching.AllMethods {
		if want := update.Options.Enabled(m); want != next.Options.Enabled(m) {
			next.Options.SetEnabled(m, want)
		}
	}
	if len(update.Options.Priority) > 0 {
		next.Options.Priority = append([]matching.Method(nil), update.Options.Priority...)
	}
	if err := next.Options.Validate(); err != nil {
		return MatchSettings{}, &SettingsValidationError{Err: err}
	}

	if update.BatchSize != 0 {
		if update.BatchSize < 0 || update.BatchSize > maxBatchSize {
			return MatchSettings{}, &SettingsValidationError{Err: fmt.Errorf("batch size must be between 1 and %d", maxBatchSize)}
		}
		next.BatchSize = update.BatchSize
	}
	return next, nil
}
