package translate

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/veslo-ai/textlab/internal/store"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) Get(ctx context.Context, ownerID, sessionID string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND owner_id = ?", sessionID, ownerID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) List(ctx context.Context, ownerID string, limit int) ([]Session, error) {
	q := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var sessions []Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *Repo) Delete(ctx context.Context, ownerID, sessionID string) error {
	res := r.db.WithContext(ctx).
		Where("session_id = ? AND owner_id = ?", sessionID, ownerID).
		Delete(&Session{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// TrimToLimit deletes the oldest sessions past keep, by updated_at ascending.
func (r *Repo) TrimToLimit(ctx context.Context, ownerID string, keep int) error {
	if keep < 0 {
		keep = 0
	}
	var victims []Session
	err := r.db.WithContext(ctx).
		Select("id").
		Where("owner_id = ?", ownerID).
		Order("updated_at ASC").
		Find(&victims).Error
	if err != nil {
		return err
	}
	excess := len(victims) - keep
	if excess <= 0 {
		return nil
	}
	ids := make([]uint64, 0, excess)
	for _, v := range victims[:excess] {
		ids = append(ids, v.ID)
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&Session{}).Error
}
