package cleanup

import (
	"context"

	"gorm.io/gorm"
)

// TrashAnalyzer removes posts trashed longer than RetentionDays, with
// their comments.
type TrashAnalyzer struct {
	db     *gorm.DB
	policy Policy
}

func NewTrashAnalyzer(db *gorm.DB, policy Policy) *TrashAnalyzer {
	return &TrashAnalyzer{db: db, policy: policy}
}

func (a *TrashAnalyzer) Name() string        { return Trash }
func (a *TrashAnalyzer) Description() string { return "Trashed posts past the retention period" }

func (a *TrashAnalyzer) scope(db *gorm.DB) *gorm.DB {
	return db.Model(&Post{}).Where("status = ? AND modified_at < ?", StatusTrash, a.policy.Cutoff())
}

func (a *TrashAnalyzer) Count(ctx context.Context) (int64, error) {
	var n int64
	err := a.scope(a.db.WithContext(ctx)).Count(&n).Error
	return n, err
}

func (a *TrashAnalyzer) Clean(ctx context.Context) (int64, error) {
	var deleted int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := a.scope(tx).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_id IN ?", ids).Delete(&Post{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Post{}, ids)
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
