package domain

import "time"

type TokenType string

const TokenTypeBearer TokenType = "BEARER"

// Token is a ledger row for an issued session token. Expired and Revoked
// are set independently; a token authenticates only while both are false.
// Rows are never deleted.
type Token struct {
	ID        string    `json:"id"`
	Value     string    `json:"-"`
	UserID    string    `json:"userId"`
	Type      TokenType `json:"type"`
	Expired   bool      `json:"expired"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *Token) IsLive() bool {
	return t != nil && !t.Expired && !t.Revoked
}

// Kill moves the token into its terminal state.
func (t *Token) Kill() {
	t.Expired = true
	t.Revoked = true
}
