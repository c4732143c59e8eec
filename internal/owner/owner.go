// Package owner manages the caller-scoped identity records. Owner IDs are
// opaque strings supplied by the caller; holding the ID is holding the data.
package owner

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("owner: not found")
	ErrAlreadyExists = errors.New("owner: already exists")
	ErrBadIdentifier = errors.New("owner: empty identifier")
)

// Owner scopes a collection of sessions. At most one record per OwnerID.
type Owner struct {
	OwnerID        string    `gorm:"type:varchar(128);primaryKey" json:"owner_id"`
	DisplayName    string    `gorm:"type:varchar(128)" json:"display_name"`
	Temporary      bool      `gorm:"not null;default:false" json:"temporary"`
	StartedUsingAt time.Time `json:"started_using_at"`
	LastUsedAt     time.Time `gorm:"index" json:"last_used_at"`
}

func (Owner) TableName() string { return "owners" }

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Normalize validates and trims a caller-supplied identifier.
func Normalize(ownerID string) (string, error) {
	cleaned := strings.TrimSpace(ownerID)
	if cleaned == "" {
		return "", ErrBadIdentifier
	}
	return cleaned, nil
}

func (r *Repo) Get(ctx context.Context, ownerID string) (*Owner, error) {
	var o Owner
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *Repo) List(ctx context.Context) ([]Owner, error) {
	var owners []Owner
	if err := r.db.WithContext(ctx).Order("started_using_at ASC").Find(&owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}

// Create inserts a new owner record, rejecting duplicates.
func (r *Repo) Create(ctx context.Context, ownerID, displayName string) (*Owner, error) {
	normalized, err := Normalize(ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := r.Get(ctx, normalized); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	if displayName == "" {
		displayName = normalized
	}
	o := Owner{
		OwnerID:        normalized,
		DisplayName:    displayName,
		StartedUsingAt: now,
		LastUsedAt:     now,
	}
	if err := r.db.WithContext(ctx).Create(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// Ensure fetches the owner, creating it on first use. Auto-vivified owners
// carry the temporary flag from the request.
func (r *Repo) Ensure(ctx context.Context, ownerID string, temporary bool) (*Owner, error) {
	normalized, err := Normalize(ownerID)
	if err != nil {
		return nil, err
	}
	o, err := r.Get(ctx, normalized)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	created := Owner{
		OwnerID:        normalized,
		DisplayName:    normalized,
		Temporary:      temporary,
		StartedUsingAt: now,
		LastUsedAt:     now,
	}
	if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// Touch refreshes last_used_at after a successful session mutation.
func (r *Repo) Touch(ctx context.Context, ownerID string) error {
	return r.db.WithContext(ctx).
		Model(&Owner{}).
		Where("owner_id = ?", ownerID).
		Update("last_used_at", time.Now()).Error
}

// Delete removes the owner and every row it holds in the given tables
// (sessions of both kinds plus queued jobs). The per-table deletes run in
// the same transaction so the cascade does not depend on the driver
// honoring ON DELETE CASCADE.
func (r *Repo) Delete(ctx context.Context, ownerID string, ownedTables ...string) error {
	normalized, err := Normalize(ownerID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("owner_id = ?", normalized).Delete(&Owner{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		for _, table := range ownedTables {
			if err := tx.Exec("DELETE FROM "+table+" WHERE owner_id = ?", normalized).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
