package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/recipebook/internal/commenttree"
)

// CommentClient covers the comment resources of the recipe service.
type CommentClient struct {
	c *Client
}

func NewCommentClient(c *Client) *CommentClient { return &CommentClient{c: c} }

// Create stores a new comment, or a reply when req.ParentCommentID is set,
// and returns the canonical node.
func (cc *CommentClient) Create(ctx context.Context, req CreateCommentRequest) (*commenttree.Node, error) {
	var out commenttree.Node
	if err := cc.c.Do(ctx, "comments.create", http.MethodPost, "/comments", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tree returns the nested thread of a recipe.
func (cc *CommentClient) Tree(ctx context.Context, recipeID string) (commenttree.Forest, error) {
	out := commenttree.Forest{}
	if err := cc.c.Do(ctx, "comments.tree", http.MethodGet, pathf("/comments/recipe/%s/tree", recipeID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (cc *CommentClient) Update(ctx context.Context, commentID, userID, text string) (*commenttree.Node, error) {
	var out commenttree.Node
	q := url.Values{"userId": {userID}}
	body := map[string]string{"text": text}
	if err := cc.c.Do(ctx, "comments.update", http.MethodPut, pathf("/comments/%s", commentID), q, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a comment. With deleteReplies false the service keeps the
// replies of the removed comment.
func (cc *CommentClient) Delete(ctx context.Context, commentID, userID string, deleteReplies bool) error {
	q := url.Values{
		"userId":        {userID},
		"deleteReplies": {strconv.FormatBool(deleteReplies)},
	}
	return cc.c.Do(ctx, "comments.delete", http.MethodDelete, pathf("/comments/%s", commentID), q, nil, nil)
}
