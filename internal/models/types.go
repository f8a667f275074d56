// Package models holds the HTTP request and response bodies.
package models

import "time"

// CreateAccountRequest is the payload for POST /accounts. PublicKey is
// optional; a key pair is generated when it is empty.
type CreateAccountRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	PublicKey string `json:"public_key,omitempty"`
}

// HbarTransferRequest moves tinybars. Amount is a string so that large or
// malformed values reach validation instead of failing JSON decoding.
type HbarTransferRequest struct {
	SenderID    string `json:"sender_id"`
	SenderKey   string `json:"sender_key"`
	RecipientID string `json:"recipient_id"`
	Amount      string `json:"amount"`
}

type TokenCreateRequest struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Decimals      uint   `json:"decimals"`
	InitialSupply int64  `json:"initial_supply"`
}

type TokenAssociateRequest struct {
	AccountID  string `json:"account_id"`
	TokenID    string `json:"token_id"`
	AccountKey string `json:"account_key"`
}

type TokenTransferRequest struct {
	TokenID     string `json:"token_id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Amount      int64  `json:"amount"`
}

type TokenBurnRequest struct {
	Amount int64 `json:"amount"`
}

type TopicCreateRequest struct {
	Memo string `json:"memo"`
}

type TopicMessageRequest struct {
	Message string `json:"message"`
}

type FileCreateRequest struct {
	Contents string `json:"contents"`
}

// SubmissionResponse is returned by every provisioning endpoint. Only the id
// field matching the operation is set.
type SubmissionResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	ConsensusTime string `json:"consensus_time,omitempty"`
	TokenID       string `json:"token_id,omitempty"`
	TopicID       string `json:"topic_id,omitempty"`
	FileID        string `json:"file_id,omitempty"`
}

// SessionRequest exchanges a username and password for a bearer token.
type SessionRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
