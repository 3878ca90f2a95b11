package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCommentNestsUnderParent(t *testing.T) {
	now := time.Now()
	d := &Discussion{}
	top := d.AddComment("top", "u1", "One", nil, now)
	reply := d.AddComment("reply", "u2", "Two", &top.ID, now)
	deep := d.AddComment("deep", "u3", "Three", &reply.ID, now)

	require.Len(t, d.Comments, 1)
	require.Len(t, top.Replies, 1)
	require.Len(t, top.Replies[0].Replies, 1)
	assert.Equal(t, deep.ID, top.Replies[0].Replies[0].ID)
	assert.Equal(t, &reply.ID, deep.ParentID)
}

func TestAddCommentUnknownParentFallsBackToTopLevel(t *testing.T) {
	now := time.Now()
	d := &Discussion{}
	d.AddComment("top", "u1", "One", nil, now)

	missing := "no-such-id"
	orphan := d.AddComment("orphan", "u2", "Two", &missing, now)

	require.Len(t, d.Comments, 2)
	assert.Equal(t, orphan.ID, d.Comments[1].ID)
	// the requested parent id stays on the node even though it landed top-level
	require.NotNil(t, orphan.ParentID)
	assert.Equal(t, missing, *orphan.ParentID)
}

func TestFindByIDChecksTopLevelBeforeSubtrees(t *testing.T) {
	now := time.Now()
	d := &Discussion{}
	first := d.AddComment("first", "u1", "One", nil, now)
	d.AddComment("nested", "u2", "Two", &first.ID, now)
	second := d.AddComment("second", "u3", "Three", nil, now)

	found := d.FindComment(second.ID)
	require.NotNil(t, found)
	assert.Equal(t, "second", found.Content)
}

func TestFindByIDSearchesDepthFirstInInsertionOrder(t *testing.T) {
	now := time.Now()
	d := &Discussion{}
	a := d.AddComment("a", "u1", "One", nil, now)
	b := d.AddComment("b", "u1", "One", nil, now)
	aChild := d.AddComment("a-child", "u2", "Two", &a.ID, now)
	bChild := d.AddComment("b-child", "u2", "Two", &b.ID, now)
	grandchild := d.AddComment("grandchild", "u3", "Three", &aChild.ID, now)

	assert.Equal(t, grandchild.ID, d.FindComment(grandchild.ID).ID)
	assert.Equal(t, bChild.ID, d.FindComment(bChild.ID).ID)
	assert.Nil(t, d.FindComment("missing"))
}

func TestToggleLikeAddsAndRemoves(t *testing.T) {
	now := time.Now()
	c := NewComment("content", "u1", "One", now)

	count, liked := c.ToggleLike("u2", now)
	assert.Equal(t, 1, count)
	assert.True(t, liked)

	count, liked = c.ToggleLike("u2", now)
	assert.Equal(t, 0, count)
	assert.False(t, liked)
}

func TestAddReportOncePerUser(t *testing.T) {
	now := time.Now()
	c := NewComment("content", "u1", "One", now)

	assert.True(t, c.AddReport("u2", "spam", now))
	assert.False(t, c.AddReport("u2", "spam again", now))
	assert.True(t, c.IsReported)
	assert.Len(t, c.Reports, 1)

	c.ClearReports()
	assert.False(t, c.IsReported)
	assert.Empty(t, c.Reports)
}

func TestSoftDeleteKeepsRepliesReachable(t *testing.T) {
	now := time.Now()
	d := &Discussion{}
	parent := d.AddComment("parent", "u1", "One", nil, now)
	child := d.AddComment("child", "u2", "Two", &parent.ID, now)

	parent.SoftDelete()

	assert.True(t, parent.IsDeleted)
	require.NotNil(t, d.FindComment(child.ID))
	assert.Equal(t, 1, d.CommentCount())
}

func TestCountActiveSkipsDeletedAtAllDepths(t *testing.T) {
	now := time.Now()
	d := &Discussion{}
	a := d.AddComment("a", "u1", "One", nil, now)
	b := d.AddComment("b", "u2", "Two", &a.ID, now)
	d.AddComment("c", "u3", "Three", &b.ID, now)

	assert.Equal(t, 3, d.CommentCount())
	b.SoftDelete()
	assert.Equal(t, 2, d.CommentCount())
}

func TestWalkVisitsEveryNode(t *testing.T) {
	now := time.Now()
	d := &Discussion{}
	a := d.AddComment("a", "u1", "One", nil, now)
	d.AddComment("b", "u2", "Two", &a.ID, now)
	d.AddComment("c", "u3", "Three", nil, now)

	var visited []string
	d.Comments.Walk(func(c *Comment) { visited = append(visited, c.Content) })
	assert.Equal(t, []string{"a", "b", "c"}, visited)
}
