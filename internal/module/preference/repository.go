package preference

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/pkg"
)

// preferenceRepository implements domain.PreferenceRepository using GORM.
type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a PreferenceRepository backed by the given GORM database.
func NewPreferenceRepository(db *gorm.DB) domain.PreferenceRepository {
	return &preferenceRepository{db: db}
}

// Get returns the stored value of key, or domain.ErrNotFound.
func (r *preferenceRepository) Get(ctx context.Context, visitor, key string) (string, error) {
	var pref domain.Preference
	err := r.db.WithContext(ctx).
		Where("visitor_id = ? AND key = ?", visitor, key).
		First(&pref).Error
	if err != nil {
		return "", mapError(err)
	}
	return pref.Value, nil
}

// GetMany returns the stored values of keys. Missing keys are absent from the map.
func (r *preferenceRepository) GetMany(ctx context.Context, visitor string, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var prefs []domain.Preference
	err := r.db.WithContext(ctx).
		Where("visitor_id = ? AND key IN ?", visitor, keys).
		Find(&prefs).Error
	if err != nil {
		return nil, mapError(err)
	}
	for _, p := range prefs {
		out[p.Key] = p.Value
	}
	return out, nil
}

// Set inserts or replaces the value of key.
func (r *preferenceRepository) Set(ctx context.Context, visitor, key, value string) error {
	return upsert(r.db.WithContext(ctx), visitor, key, value)
}

// Delete removes key. Deleting a missing key is not an error.
func (r *preferenceRepository) Delete(ctx context.Context, visitor, key string) error {
	err := r.db.WithContext(ctx).
		Where("visitor_id = ? AND key = ?", visitor, key).
		Delete(&domain.Preference{}).Error
	return mapError(err)
}

// Update reads key, applies fn and writes the result in one transaction.
// On PostgreSQL the row is locked for the duration.
func (r *preferenceRepository) Update(ctx context.Context, visitor, key string, fn func(current string, found bool) (string, error)) error {
	return pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		q := tx.Where("visitor_id = ? AND key = ?", visitor, key)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var pref domain.Preference
		found := true
		if err := q.First(&pref).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return mapError(err)
			}
			found = false
		}

		next, err := fn(pref.Value, found)
		if err != nil {
			return err
		}
		if found && next == pref.Value {
			return nil
		}
		return upsert(tx, visitor, key, next)
	})
}

func upsert(db *gorm.DB, visitor, key, value string) error {
	pref := domain.Preference{VisitorID: visitor, Key: key, Value: value}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "visitor_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	return mapError(err)
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by message, since
// the pure-Go SQLite driver does not translate them to gorm.ErrDuplicatedKey.
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
