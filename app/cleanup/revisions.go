package cleanup

import (
	"context"
	"slices"

	"gorm.io/gorm"
)

// RevisionsAnalyzer removes revisions beyond the newest RevisionsToKeep of
// each post.
type RevisionsAnalyzer struct {
	db     *gorm.DB
	policy Policy
}

func NewRevisionsAnalyzer(db *gorm.DB, policy Policy) *RevisionsAnalyzer {
	return &RevisionsAnalyzer{db: db, policy: policy}
}

func (a *RevisionsAnalyzer) Name() string        { return Revisions }
func (a *RevisionsAnalyzer) Description() string { return "Post revisions beyond the per-post limit" }

func (a *RevisionsAnalyzer) Count(ctx context.Context) (int64, error) {
	ids, err := a.surplus(ctx)
	return int64(len(ids)), err
}

func (a *RevisionsAnalyzer) Clean(ctx context.Context) (int64, error) {
	ids, err := a.surplus(ctx)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for chunk := range slices.Chunk(ids, a.policy.batch()) {
		res := a.db.WithContext(ctx).Delete(&Post{}, chunk)
		if res.Error != nil {
			return deleted, res.Error
		}
		deleted += res.RowsAffected
	}
	return deleted, nil
}

func (a *RevisionsAnalyzer) surplus(ctx context.Context) ([]uint, error) {
	var revisions []Post
	err := a.db.WithContext(ctx).
		Select("id", "parent_id").
		Where("type = ?", TypeRevision).
		Order("parent_id, modified_at DESC, id DESC").
		Find(&revisions).Error
	if err != nil {
		return nil, err
	}

	kept := make(map[uint]int)
	var ids []uint
	for _, r := range revisions {
		kept[r.ParentID]++
		if kept[r.ParentID] > a.policy.RevisionsToKeep {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}
