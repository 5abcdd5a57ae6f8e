package cleanup

import "time"

const (
	TypePost     = "post"
	TypeRevision = "revision"

	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusTrash   = "trash"

	CommentApproved = "approved"
	CommentSpam     = "spam"
	CommentTrash    = "trash"
)

// Post is a content row. Revisions point at their post through ParentID.
type Post struct {
	ID         uint   `gorm:"primaryKey"`
	Type       string `gorm:"size:20;index"`
	Status     string `gorm:"size:20;index"`
	ParentID   uint   `gorm:"index"`
	Title      string
	Body       string
	ModifiedAt time.Time `gorm:"index"`
}

type Comment struct {
	ID        uint   `gorm:"primaryKey"`
	PostID    uint   `gorm:"index"`
	Status    string `gorm:"size:20;index"`
	Author    string
	Body      string
	CreatedAt time.Time `gorm:"index"`
}

// Transient is a cached value with an expiry.
type Transient struct {
	Name      string `gorm:"primaryKey;size:191"`
	Value     string
	ExpiresAt time.Time `gorm:"index"`
}

// Models lists the tables owned by this package, for migration.
func Models() []any {
	return []any{&Post{}, &Comment{}, &Transient{}}
}
