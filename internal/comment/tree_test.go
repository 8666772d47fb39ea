package comment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/commenthub/internal/domain"
)

var base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func mk(id string, parent string, offset int) domain.Comment {
	c := domain.Comment{
		ID:        id,
		Text:      "text " + id,
		AuthorID:  "u-" + id,
		PostID:    "post-1",
		CreatedAt: base.Add(time.Duration(offset) * time.Second),
	}
	if parent != "" {
		p := parent
		c.ParentID = &p
	}
	c.UpdatedAt = c.CreatedAt
	return c
}

// ids はツリーを深さ優先でたどり、出現したIDを順に返す。
func ids(nodes []*Node) []string {
	var out []string
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			out = append(out, n.ID)
			walk(n.Replies)
		}
	}
	walk(nodes)
	return out
}

func TestBuild_NestsRepliesUnderParents(t *testing.T) {
	t.Parallel()

	comments := []domain.Comment{
		mk("a", "", 0),
		mk("b", "", 1),
		mk("a1", "a", 2),
		mk("a1x", "a1", 3),
		mk("b1", "b", 4),
		mk("a2", "a", 5),
	}

	tree := Build(comments)

	require.Len(t, tree, 2)
	assert.Equal(t, "a", tree[0].ID)
	assert.Equal(t, "b", tree[1].ID)

	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, "a1", tree[0].Replies[0].ID)
	assert.Equal(t, "a2", tree[0].Replies[1].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, "a1x", tree[0].Replies[0].Replies[0].ID)

	require.Len(t, tree[1].Replies, 1)
	assert.Equal(t, "b1", tree[1].Replies[0].ID)
	assert.NotNil(t, tree[1].Replies[0].Replies, "返信のないノードの Replies は空スライスであるべき")
	assert.Empty(t, tree[1].Replies[0].Replies)
}

func TestBuild_SiblingOrderFollowsInput(t *testing.T) {
	t.Parallel()

	comments := []domain.Comment{
		mk("root", "", 0),
		mk("z", "root", 1),
		mk("m", "root", 2),
		mk("a", "root", 3),
	}

	tree := Build(comments)

	require.Len(t, tree, 1)
	assert.Equal(t, []string{"root", "z", "m", "a"}, ids(tree))
}

func TestBuild_DropsOrphans(t *testing.T) {
	t.Parallel()

	comments := []domain.Comment{
		mk("a", "", 0),
		mk("orphan", "deleted", 1),
		mk("orphan-child", "orphan", 2),
		mk("a1", "a", 3),
	}

	got := ids(Build(comments))

	assert.Equal(t, []string{"a", "a1"}, got)
	assert.NotContains(t, got, "orphan")
	assert.NotContains(t, got, "orphan-child")
}

func TestBuild_SelfParentAndCyclesTerminate(t *testing.T) {
	t.Parallel()

	comments := []domain.Comment{
		mk("a", "", 0),
		mk("self", "self", 1),
		mk("x", "y", 2),
		mk("y", "x", 3),
	}

	done := make(chan []*Node, 1)
	go func() { done <- Build(comments) }()

	select {
	case tree := <-done:
		assert.Equal(t, []string{"a"}, ids(tree))
	case <-time.After(2 * time.Second):
		t.Fatal("Build did not terminate on self-referencing comments")
	}

	sub := BuildFrom(comments, "self")
	assert.Equal(t, []string{"self"}, ids(sub))
}

func TestBuild_EachCommentAtMostOnce(t *testing.T) {
	t.Parallel()

	comments := []domain.Comment{
		mk("a", "", 0),
		mk("a", "", 1),
		mk("b", "a", 2),
	}

	got := ids(Build(comments))

	seen := map[string]int{}
	for _, id := range got {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equalf(t, 1, n, "comment %s appeared %d times", id, n)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	comments := []domain.Comment{
		mk("a", "", 0),
		mk("a1", "a", 1),
		mk("b", "", 2),
		mk("a1a", "a1", 3),
	}

	assert.Equal(t, Build(comments), Build(comments))
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	comments := []domain.Comment{
		mk("a", "", 0),
		mk("a1", "a", 1),
	}
	before := make([]domain.Comment, len(comments))
	copy(before, comments)

	_ = Build(comments)

	assert.Equal(t, before, comments)
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	tree := Build(nil)
	assert.NotNil(t, tree)
	assert.Empty(t, tree)
}

func TestBuildFrom_Subtree(t *testing.T) {
	t.Parallel()

	comments := []domain.Comment{
		mk("a", "", 0),
		mk("a1", "a", 1),
		mk("a1a", "a1", 2),
		mk("a2", "a", 3),
	}

	sub := BuildFrom(comments, "a1")
	assert.Equal(t, []string{"a1a"}, ids(sub))
}
