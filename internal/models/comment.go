package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Like marks a single user's like on a comment or discussion.
type Like struct {
	UserID  string    `json:"userId"`
	LikedAt time.Time `json:"likedAt"`
}

// LikeList is a JSONB-persisted set of likes, at most one per user.
type LikeList []Like

// Toggle removes the user's like when present, otherwise adds one.
// Returns the resulting count and whether the user now likes the entity.
func (l *LikeList) Toggle(userID string, now time.Time) (int, bool) {
	for i, like := range *l {
		if like.UserID == userID {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return len(*l), false
		}
	}
	*l = append(*l, Like{UserID: userID, LikedAt: now})
	return len(*l), true
}

// Contains reports whether the user has liked the entity.
func (l LikeList) Contains(userID string) bool {
	for _, like := range l {
		if like.UserID == userID {
			return true
		}
	}
	return false
}

func (l LikeList) Value() (driver.Value, error) {
	if l == nil {
		l = LikeList{}
	}
	return json.Marshal(l)
}

func (l *LikeList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Report records a single user's report against a comment or discussion.
type Report struct {
	UserID     string    `json:"userId"`
	Reason     string    `json:"reason"`
	ReportedAt time.Time `json:"reportedAt"`
}

// ReportList is a JSONB-persisted report set, at most one entry per user.
// Reports are cleared only by moderation, never by the reporter.
type ReportList []Report

// Add appends a report unless the user has already reported the entity.
func (r *ReportList) Add(userID, reason string, now time.Time) bool {
	for _, report := range *r {
		if report.UserID == userID {
			return false
		}
	}
	*r = append(*r, Report{UserID: userID, Reason: reason, ReportedAt: now})
	return true
}

func (r ReportList) Value() (driver.Value, error) {
	if r == nil {
		r = ReportList{}
	}
	return json.Marshal(r)
}

func (r *ReportList) Scan(src interface{}) error {
	return scanJSON(src, r)
}

// Comment is a node in a discussion's reply tree. Replies nest without a
// depth limit; a node is only ever flagged deleted, never detached, so its
// replies stay reachable.
type Comment struct {
	ID         string      `json:"id"`
	Content    string      `json:"content"`
	AuthorID   string      `json:"authorId"`
	AuthorName string      `json:"authorName"`
	ParentID   *string     `json:"parentId,omitempty"`
	Likes      LikeList    `json:"likes"`
	Reports    ReportList  `json:"reports"`
	IsReported bool        `json:"isReported"`
	IsDeleted  bool        `json:"isDeleted"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Replies    CommentList `json:"replies"`
}

// NewComment builds a fresh comment node.
func NewComment(content, authorID, authorName string, now time.Time) *Comment {
	return &Comment{
		ID:         uuid.NewString(),
		Content:    content,
		AuthorID:   authorID,
		AuthorName: authorName,
		Likes:      LikeList{},
		Reports:    ReportList{},
		CreatedAt:  now,
		UpdatedAt:  now,
		Replies:    CommentList{},
	}
}

// ToggleLike flips the user's like on this comment.
func (c *Comment) ToggleLike(userID string, now time.Time) (int, bool) {
	return c.Likes.Toggle(userID, now)
}

// AddReport records a report; returns false when the user already reported.
func (c *Comment) AddReport(userID, reason string, now time.Time) bool {
	if !c.Reports.Add(userID, reason, now) {
		return false
	}
	c.IsReported = true
	return true
}

// ClearReports removes all reports, used by the moderation approve action.
func (c *Comment) ClearReports() {
	c.Reports = ReportList{}
	c.IsReported = false
}

// SoftDelete flags the comment without touching its replies.
func (c *Comment) SoftDelete() {
	c.IsDeleted = true
}

// LikeCount is the number of distinct likers.
func (c *Comment) LikeCount() int {
	return len(c.Likes)
}

// CommentList is the JSONB-persisted ordered comment tree owned by one
// discussion.
type CommentList []*Comment

// FindByID locates a comment anywhere in the tree. Every top-level comment
// is checked first; only then is each top-level subtree searched depth-first
// in insertion order, first match wins.
func (cl CommentList) FindByID(id string) *Comment {
	for _, c := range cl {
		if c.ID == id {
			return c
		}
	}
	for _, c := range cl {
		if found := c.Replies.findDFS(id); found != nil {
			return found
		}
	}
	return nil
}

func (cl CommentList) findDFS(id string) *Comment {
	for _, c := range cl {
		if c.ID == id {
			return c
		}
		if found := c.Replies.findDFS(id); found != nil {
			return found
		}
	}
	return nil
}

// CountActive counts non-deleted comments at every depth.
func (cl CommentList) CountActive() int {
	count := 0
	for _, c := range cl {
		if !c.IsDeleted {
			count++
		}
		count += c.Replies.CountActive()
	}
	return count
}

// Walk visits every node in the tree in traversal order.
func (cl CommentList) Walk(visit func(*Comment)) {
	for _, c := range cl {
		visit(c)
		c.Replies.Walk(visit)
	}
}

func (cl CommentList) Value() (driver.Value, error) {
	if cl == nil {
		cl = CommentList{}
	}
	return json.Marshal(cl)
}

func (cl *CommentList) Scan(src interface{}) error {
	return scanJSON(src, cl)
}
