// Package commenttree keeps a nested comment thread consistent with the
// recipe service after each successful create, edit or delete, without
// refetching the whole thread.
//
// Every operation is a pure transform: the input forest and its nodes are
// never modified. Nodes on the path to the target are copied, everything
// else is shared with the input, so callers can compare pointers to find
// the subtrees that changed.
package commenttree

import "time"

// Node is a comment or reply as returned by the recipe service.
type Node struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipeId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	ParentID  *string   `json:"parentCommentId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Replies   []*Node   `json:"replies,omitempty"`
}

// IsRoot reports whether n is a top-level comment.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil || *n.ParentID == ""
}

// Forest is the ordered list of top-level comments of one recipe.
type Forest []*Node

// InsertRoot prepends a newly created top-level comment.
func InsertRoot(f Forest, n *Node) Forest {
	out := make(Forest, 0, len(f)+1)
	out = append(out, n)
	return append(out, f...)
}

// InsertReply appends n to the replies of the node whose id is parentID.
// When no such node exists f is returned unchanged and applied is false.
func InsertReply(f Forest, parentID string, n *Node) (out Forest, applied bool) {
	nodes, ok := insertReply(f, parentID, n)
	if !ok {
		return f, false
	}
	return nodes, true
}

func insertReply(nodes []*Node, parentID string, n *Node) ([]*Node, bool) {
	for i, c := range nodes {
		if c.ID == parentID {
			cp := *c
			cp.Replies = make([]*Node, 0, len(c.Replies)+1)
			cp.Replies = append(cp.Replies, c.Replies...)
			cp.Replies = append(cp.Replies, n)
			return replaceAt(nodes, i, &cp), true
		}
		if replies, ok := insertReply(c.Replies, parentID, n); ok {
			cp := *c
			cp.Replies = replies
			return replaceAt(nodes, i, &cp), true
		}
	}
	return nodes, false
}

// UpdateText replaces the text of the node with updated.ID by updated.Text.
// Replies, parent and the other fields of the stored node are kept.
func UpdateText(f Forest, updated *Node) (out Forest, applied bool) {
	nodes, ok := updateText(f, updated.ID, updated.Text)
	if !ok {
		return f, false
	}
	return nodes, true
}

func updateText(nodes []*Node, id, text string) ([]*Node, bool) {
	for i, c := range nodes {
		if c.ID == id {
			cp := *c
			cp.Text = text
			return replaceAt(nodes, i, &cp), true
		}
		if replies, ok := updateText(c.Replies, id, text); ok {
			cp := *c
			cp.Replies = replies
			return replaceAt(nodes, i, &cp), true
		}
	}
	return nodes, false
}

// Remove drops the node with the given id together with its whole subtree.
func Remove(f Forest, id string) (out Forest, applied bool) {
	nodes, ok := remove(f, id)
	if !ok {
		return f, false
	}
	return nodes, true
}

func remove(nodes []*Node, id string) ([]*Node, bool) {
	for i, c := range nodes {
		if c.ID == id {
			out := make([]*Node, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			return append(out, nodes[i+1:]...), true
		}
		if replies, ok := remove(c.Replies, id); ok {
			cp := *c
			cp.Replies = replies
			return replaceAt(nodes, i, &cp), true
		}
	}
	return nodes, false
}

// Count returns the number of comments in f including all nested replies.
func Count(f Forest) int {
	return count(f)
}

func count(nodes []*Node) int {
	total := 0
	for _, c := range nodes {
		total += 1 + count(c.Replies)
	}
	return total
}

// Find returns the node with the given id, or nil.
func Find(f Forest, id string) *Node {
	return find(f, id)
}

func find(nodes []*Node, id string) *Node {
	for _, c := range nodes {
		if c.ID == id {
			return c
		}
		if n := find(c.Replies, id); n != nil {
			return n
		}
	}
	return nil
}

// replaceAt returns a copy of nodes with position i set to n.
func replaceAt(nodes []*Node, i int, n *Node) []*Node {
	out := make([]*Node, len(nodes))
	copy(out, nodes)
	out[i] = n
	return out
}
