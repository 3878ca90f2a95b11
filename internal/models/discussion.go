package models

import (
	"time"

	"github.com/lib/pq"
)

// DiscussionCategory classifies forum discussions.
type DiscussionCategory string

const (
	CategoryGeneral  DiscussionCategory = "GENERAL"
	CategoryAcademic DiscussionCategory = "ACADEMIC"
	CategoryEvents   DiscussionCategory = "EVENTS"
	CategoryClubs    DiscussionCategory = "CLUBS"
	CategoryCareer   DiscussionCategory = "CAREER"
	CategoryOther    DiscussionCategory = "OTHER"
)

// ValidDiscussionCategory reports whether the category is a known value.
func ValidDiscussionCategory(c DiscussionCategory) bool {
	switch c {
	case CategoryGeneral, CategoryAcademic, CategoryEvents, CategoryClubs, CategoryCareer, CategoryOther:
		return true
	}
	return false
}

// Discussion is a forum post owning its entire comment tree. The tree,
// likes, and reports persist as JSONB columns so every mutation is a
// single-row read-modify-write.
type Discussion struct {
	ID         string             `db:"id" json:"id"`
	Title      string             `db:"title" json:"title"`
	Content    string             `db:"content" json:"content"`
	AuthorID   string             `db:"author_id" json:"author_id"`
	AuthorName string             `db:"author_name" json:"author_name"`
	Category   DiscussionCategory `db:"category" json:"category"`
	Tags       pq.StringArray     `db:"tags" json:"tags"`
	Likes      LikeList           `db:"likes" json:"likes"`
	Comments   CommentList        `db:"comments" json:"comments"`
	ViewCount  int                `db:"view_count" json:"view_count"`
	IsReported bool               `db:"is_reported" json:"is_reported"`
	Reports    ReportList         `db:"reports" json:"reports"`
	IsDeleted  bool               `db:"is_deleted" json:"is_deleted"`
	IsPinned   bool               `db:"is_pinned" json:"is_pinned"`
	IsLocked   bool               `db:"is_locked" json:"is_locked"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`
}

// AddComment inserts a new node into the tree. When parentID resolves, the
// node is appended to that parent's replies. An unresolvable parentID falls
// back to a top-level append while keeping the requested parent id on the
// node, so a misdirected reply is never lost.
func (d *Discussion) AddComment(content, authorID, authorName string, parentID *string, now time.Time) *Comment {
	comment := NewComment(content, authorID, authorName, now)
	if parentID != nil && *parentID != "" {
		comment.ParentID = parentID
		if parent := d.Comments.FindByID(*parentID); parent != nil {
			parent.Replies = append(parent.Replies, comment)
			return comment
		}
	}
	d.Comments = append(d.Comments, comment)
	return comment
}

// FindComment locates a comment anywhere in the tree, or nil.
func (d *Discussion) FindComment(id string) *Comment {
	return d.Comments.FindByID(id)
}

// CommentCount counts non-deleted comments at all depths.
func (d *Discussion) CommentCount() int {
	return d.Comments.CountActive()
}

// ToggleLike flips the user's like on the discussion itself.
func (d *Discussion) ToggleLike(userID string, now time.Time) (int, bool) {
	return d.Likes.Toggle(userID, now)
}

// AddReport records a discussion-level report, one per user.
func (d *Discussion) AddReport(userID, reason string, now time.Time) bool {
	if !d.Reports.Add(userID, reason, now) {
		return false
	}
	d.IsReported = true
	return true
}

// ClearReports wipes discussion-level reports (moderation approve).
func (d *Discussion) ClearReports() {
	d.Reports = ReportList{}
	d.IsReported = false
}

// DiscussionFilter captures list query criteria.
type DiscussionFilter struct {
	Category string
	Tag      string
	AuthorID string
	Search   string
	Page     int
	PageSize int
}
