package cleanup

import (
	"strconv"
	"time"

	"github.com/km-arc/go-housekeeper/framework/config"
)

// Policy bounds what the analyzers treat as garbage.
type Policy struct {
	// RetentionDays is how long trashed posts and spam stay before cleanup.
	RetentionDays int
	// RevisionsToKeep is the number of newest revisions kept per post.
	RevisionsToKeep int
	BatchSize       int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// PolicyFromConfig builds a Policy from the cleanup config section.
func PolicyFromConfig(cfg config.CleanupConfig) Policy {
	return Policy{
		RetentionDays:   cfg.RetentionDays,
		RevisionsToKeep: cfg.RevisionsToKeep,
		BatchSize:       cfg.BatchSize,
	}
}

// Override applies stored settings on top of p. Malformed values are
// ignored.
func (p Policy) Override(settings map[string]string) Policy {
	if n, err := strconv.Atoi(settings[SettingRetentionDays]); err == nil && n > 0 {
		p.RetentionDays = n
	}
	if n, err := strconv.Atoi(settings[SettingRevisionsToKeep]); err == nil && n >= 0 {
		p.RevisionsToKeep = n
	}
	return p
}

// Setting keys read by Override.
const (
	SettingRetentionDays   = "cleanup.retention_days"
	SettingRevisionsToKeep = "cleanup.revisions_to_keep"
)

func (p Policy) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

// Cutoff is the instant before which trashed content is old enough to go.
func (p Policy) Cutoff() time.Time {
	return p.now().AddDate(0, 0, -p.RetentionDays)
}

func (p Policy) batch() int {
	if p.BatchSize <= 0 {
		return 500
	}
	return p.BatchSize
}
