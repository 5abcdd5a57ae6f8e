package cleanup

import (
	"context"

	"gorm.io/gorm"
)

// SpamAnalyzer removes spam and trashed comments older than RetentionDays.
type SpamAnalyzer struct {
	db     *gorm.DB
	policy Policy
}

func NewSpamAnalyzer(db *gorm.DB, policy Policy) *SpamAnalyzer {
	return &SpamAnalyzer{db: db, policy: policy}
}

func (a *SpamAnalyzer) Name() string        { return Spam }
func (a *SpamAnalyzer) Description() string { return "Spam and trashed comments" }

func (a *SpamAnalyzer) scope(ctx context.Context) *gorm.DB {
	return a.db.WithContext(ctx).Model(&Comment{}).
		Where("status IN ? AND created_at < ?", []string{CommentSpam, CommentTrash}, a.policy.Cutoff())
}

func (a *SpamAnalyzer) Count(ctx context.Context) (int64, error) {
	var n int64
	err := a.scope(ctx).Count(&n).Error
	return n, err
}

func (a *SpamAnalyzer) Clean(ctx context.Context) (int64, error) {
	res := a.scope(ctx).Delete(&Comment{})
	return res.RowsAffected, res.Error
}
