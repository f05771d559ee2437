package model

// Post is a message written by a user. AuthorID always references an
// existing user; posts are deleted when their author is.
type Post struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	AuthorID int64  `json:"author_id"`

	// InterestedUsers holds the users who liked this post.
	InterestedUsers []UserSummary `json:"interested_users"`
}

// PostSummary is the no-relations view of a Post.
type PostSummary struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	AuthorID int64  `json:"author_id"`
}

// Summary returns the scalar-only view of the post.
func (p *Post) Summary() PostSummary {
	return PostSummary{ID: p.ID, Title: p.Title, Body: p.Body, AuthorID: p.AuthorID}
}
