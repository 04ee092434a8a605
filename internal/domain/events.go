package domain

const (
	SubjectUserRegistered  = "user.registered"
	SubjectUserLoggedIn    = "user.logged_in"
	SubjectUserLoggedOut   = "user.logged_out"
	SubjectPostTagsChanged = "post.tags_changed"
	SubjectTagDeleted      = "tag.deleted"
)

type UserRegistered struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}
type UserLoggedIn struct {
	UserID        string `json:"userId"`
	RevokedTokens int    `json:"revokedTokens"`
}
type UserLoggedOut struct {
	UserID string `json:"userId"`
}
type PostTagsChanged struct {
	PostID  string   `json:"postId"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}
type TagDeleted struct {
	TagID    string `json:"tagId"`
	Name     string `json:"name"`
	Detached int64  `json:"detached"`
}
