package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Guard serializes mutations of a versioned session row with a
// compare-and-swap on its version column. Both session tables (analysis and
// translation) go through the same guard; they only differ in table name and
// in the fields each mutation writes.
type Guard struct {
	db *gorm.DB
}

func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// CurrentVersion reads the stored version of a session scoped to its owner.
func (g *Guard) CurrentVersion(ctx context.Context, table, sessionID, ownerID string) (int, error) {
	var row struct {
		Version int
	}
	err := g.db.WithContext(ctx).
		Table(table).
		Select("version").
		Where("session_id = ? AND owner_id = ?", sessionID, ownerID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return row.Version, nil
}

// Apply commits one mutation as a single version increment.
//
// When expected is non-nil it must equal the stored version, otherwise the
// mutation is rejected in full with ErrVersionConflict. When expected is nil
// the stored version is used (a blind update), still as a single CAS attempt:
// two concurrent mutations racing on the same version leave exactly one
// winner. The fields map must not contain version or updated_at; the guard
// owns both.
func (g *Guard) Apply(ctx context.Context, table, sessionID, ownerID string, expected *int, fields map[string]any) (int, error) {
	stored, err := g.CurrentVersion(ctx, table, sessionID, ownerID)
	if err != nil {
		return 0, err
	}
	if expected != nil && *expected != stored {
		return 0, ErrVersionConflict
	}

	next := stored + 1
	updates := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = next
	updates["updated_at"] = time.Now()

	res := g.db.WithContext(ctx).
		Table(table).
		Where("session_id = ? AND owner_id = ? AND version = ?", sessionID, ownerID, stored).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race: someone moved the version between our read and
		// our write, or the row is gone. Distinguish the two.
		if _, err := g.CurrentVersion(ctx, table, sessionID, ownerID); errors.Is(err, ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, ErrVersionConflict
	}
	return next, nil
}
