package comment

import "github.com/nao1215/commenthub/internal/domain"

// Node は返信ツリーの1ノード。コメント本体と直下の返信を持つ。
type Node struct {
	domain.Comment
	// Replies は直下の返信。入力順（作成日時の昇順）を保つ。
	Replies []*Node `json:"replies"`
}

// rootKey はトップレベルコメントのグルーピングキー。コメントIDは空にならない。
const rootKey = ""

// Build は投稿に属するコメントのフラットな一覧から返信ツリーを構築する。
// comments は作成日時の昇順であることを呼び出し側が保証する。
//
// 親IDが一覧に存在しないコメントはどのノードからも辿れないため、
// ツリーには含まれない。各コメントは高々1回しか出現しない。
func Build(comments []domain.Comment) []*Node {
	return buildFrom(comments, rootKey)
}

// BuildFrom は parentID を根として、その配下の返信ツリーを構築する。
func BuildFrom(comments []domain.Comment, parentID string) []*Node {
	return buildFrom(comments, parentID)
}

func buildFrom(comments []domain.Comment, root string) []*Node {
	children := groupByParent(comments)
	seen := make(map[string]struct{}, len(comments))
	return attach(comments, children, root, seen)
}

// groupByParent は親IDごとに子コメントの添字を入力順で束ねる。
func groupByParent(comments []domain.Comment) map[string][]int {
	children := make(map[string][]int, len(comments))
	for i := range comments {
		key := rootKey
		if p := comments[i].ParentID; p != nil {
			key = *p
		}
		children[key] = append(children[key], i)
	}
	return children
}

// attach は key の子ノードを組み立てる。seen に記録済みのIDは再訪しないため、
// 自己参照や循環があっても停止する。
func attach(comments []domain.Comment, children map[string][]int, key string, seen map[string]struct{}) []*Node {
	idxs := children[key]
	nodes := make([]*Node, 0, len(idxs))
	for _, i := range idxs {
		c := comments[i]
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		nodes = append(nodes, &Node{
			Comment: c,
			Replies: attach(comments, children, c.ID, seen),
		})
	}
	return nodes
}
