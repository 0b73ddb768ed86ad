package entity

import "time"

// Post is a short forum article written by a user.
type Post struct {
	ID             string
	PosterID       string
	PosterUsername string
	Title          string
	Content        string
	CreatedAt      time.Time
}

// StellarObject is a discussion thread named after an astronomical object.
type StellarObject struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// CommentTarget tells which kind of thread a comment belongs to.
type CommentTarget string

const (
	TargetObject CommentTarget = "object"
	TargetPost   CommentTarget = "post"
)

// Comment belongs either to a stellar object (TargetKey = lower-cased object
// name) or to a post (TargetKey = post ID).
type Comment struct {
	ID                string
	CommenterID       string
	CommenterUsername string
	Target            CommentTarget
	TargetKey         string
	Content           string
	CreatedAt         time.Time
}

// SearchResults groups matches of a free text query per collection.
type SearchResults struct {
	Query   string
	Objects []StellarObject
	Posts   []Post
	Users   []User
}

// Empty reports whether nothing matched.
func (r SearchResults) Empty() bool {
	return len(r.Objects) == 0 && len(r.Posts) == 0 && len(r.Users) == 0
}
