package cleanup

import (
	"context"

	"gorm.io/gorm"
)

// TransientsAnalyzer removes expired transients.
type TransientsAnalyzer struct {
	db     *gorm.DB
	policy Policy
}

func NewTransientsAnalyzer(db *gorm.DB, policy Policy) *TransientsAnalyzer {
	return &TransientsAnalyzer{db: db, policy: policy}
}

func (a *TransientsAnalyzer) Name() string        { return Transients }
func (a *TransientsAnalyzer) Description() string { return "Expired transients" }

func (a *TransientsAnalyzer) scope(ctx context.Context) *gorm.DB {
	return a.db.WithContext(ctx).Model(&Transient{}).Where("expires_at < ?", a.policy.now())
}

func (a *TransientsAnalyzer) Count(ctx context.Context) (int64, error) {
	var n int64
	err := a.scope(ctx).Count(&n).Error
	return n, err
}

func (a *TransientsAnalyzer) Clean(ctx context.Context) (int64, error) {
	res := a.scope(ctx).Delete(&Transient{})
	return res.RowsAffected, res.Error
}
