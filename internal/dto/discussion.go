package dto

import (
	"time"

	"github.com/campuslink/campuslink-api/internal/models"
)

// CreateDiscussionRequest is the payload for opening a discussion.
type CreateDiscussionRequest struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category" validate:"required,oneof=GENERAL ACADEMIC EVENTS CLUBS CAREER OTHER"`
	Tags     []string `json:"tags" validate:"max=10"`
}

// UpdateDiscussionRequest is the author/admin edit payload.
type UpdateDiscussionRequest struct {
	Title    *string  `json:"title" validate:"omitempty,max=200"`
	Content  *string  `json:"content"`
	Category *string  `json:"category" validate:"omitempty,oneof=GENERAL ACADEMIC EVENTS CLUBS CAREER OTHER"`
	Tags     []string `json:"tags" validate:"omitempty,max=10"`
}

// AddCommentRequest creates a comment or reply. ParentComment targets an
// existing node; an unknown id falls back to a top-level comment.
type AddCommentRequest struct {
	Content       string  `json:"content" validate:"required"`
	ParentComment *string `json:"parentComment"`
}

// EditCommentRequest updates a comment's content (author only).
type EditCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// ReportRequest carries the reporter's reason.
type ReportRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ModerateDiscussionRequest is the admin moderation payload.
type ModerateDiscussionRequest struct {
	Action string `json:"action" validate:"required,oneof=approve delete pin unpin lock unlock"`
	Reason string `json:"reason"`
}

// ModerateCommentRequest is the admin comment moderation payload.
type ModerateCommentRequest struct {
	Action string `json:"action" validate:"required,oneof=approve delete"`
}

// LikeResult is returned by like toggles at both levels.
type LikeResult struct {
	LikeCount int  `json:"likeCount"`
	IsLiked   bool `json:"isLiked"`
}

// CommentView is a comment annotated for the requesting user, replies
// annotated recursively at every depth.
type CommentView struct {
	ID         string        `json:"id"`
	Content    string        `json:"content"`
	AuthorID   string        `json:"authorId"`
	AuthorName string        `json:"authorName"`
	ParentID   *string       `json:"parentId,omitempty"`
	LikeCount  int           `json:"likeCount"`
	IsLiked    bool          `json:"isLikedByUser"`
	IsReported bool          `json:"isReported"`
	IsDeleted  bool          `json:"isDeleted"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Replies    []CommentView `json:"replies"`
}

// DiscussionView is a discussion annotated for the requesting user.
type DiscussionView struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	AuthorID     string        `json:"authorId"`
	AuthorName   string        `json:"authorName"`
	Category     string        `json:"category"`
	Tags         []string      `json:"tags"`
	LikeCount    int           `json:"likeCount"`
	IsLiked      bool          `json:"isLikedByUser"`
	ViewCount    int           `json:"viewCount"`
	CommentCount int           `json:"commentCount"`
	IsReported   bool          `json:"isReported"`
	IsPinned     bool          `json:"isPinned"`
	IsLocked     bool          `json:"isLocked"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	Comments     []CommentView `json:"comments,omitempty"`
}

// AddCommentResponse pairs the created node with the live total.
type AddCommentResponse struct {
	Comment       CommentView `json:"comment"`
	TotalComments int         `json:"totalComments"`
}

// NewCommentView annotates one comment subtree for the given user.
func NewCommentView(c *models.Comment, userID string) CommentView {
	view := CommentView{
		ID:         c.ID,
		Content:    c.Content,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		ParentID:   c.ParentID,
		LikeCount:  c.LikeCount(),
		IsLiked:    c.Likes.Contains(userID),
		IsReported: c.IsReported,
		IsDeleted:  c.IsDeleted,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Replies:    make([]CommentView, 0, len(c.Replies)),
	}
	for _, reply := range c.Replies {
		view.Replies = append(view.Replies, NewCommentView(reply, userID))
	}
	return view
}

// NewDiscussionView annotates a discussion for the given user.
// includeComments controls whether the full tree rides along (detail view)
// or stays off (list view).
func NewDiscussionView(d *models.Discussion, userID string, includeComments bool) DiscussionView {
	view := DiscussionView{
		ID:           d.ID,
		Title:        d.Title,
		Content:      d.Content,
		AuthorID:     d.AuthorID,
		AuthorName:   d.AuthorName,
		Category:     string(d.Category),
		Tags:         d.Tags,
		LikeCount:    len(d.Likes),
		IsLiked:      d.Likes.Contains(userID),
		ViewCount:    d.ViewCount,
		CommentCount: d.CommentCount(),
		IsReported:   d.IsReported,
		IsPinned:     d.IsPinned,
		IsLocked:     d.IsLocked,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if includeComments {
		view.Comments = make([]CommentView, 0, len(d.Comments))
		for _, c := range d.Comments {
			view.Comments = append(view.Comments, NewCommentView(c, userID))
		}
	}
	return view
}
