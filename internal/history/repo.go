package history

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Create inserts rec and fills its ID. CreatedAt is server-set, UTC, millisecond precision.
func (r *Repo) Create(ctx context.Context, rec *QueryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Millisecond)
	return r.db.WithContext(ctx).Create(rec).Error
}

// List returns records newest first; ties on created_at go to the higher id.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]QueryRecord, error) {
	var recs []QueryRecord
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&QueryRecord{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repo) Get(ctx context.Context, id uint64) (*QueryRecord, error) {
	var rec QueryRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes one record; gorm.ErrRecordNotFound when nothing matched.
func (r *Repo) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&QueryRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
