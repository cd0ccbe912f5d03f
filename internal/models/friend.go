package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendRequest is a directed relationship record between two users.
// PairLow/PairHigh hold the unordered pair so the database can enforce a
// single active record per pair regardless of direction.
type FriendRequest struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RequesterID uint      `gorm:"not null;index" json:"requester_id"`
	TargetID    uint      `gorm:"not null;index:idx_friend_requests_target_status" json:"target_id"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending';index:idx_friend_requests_target_status" json:"status"`
	PairLow     uint      `gorm:"not null;uniqueIndex:idx_friend_requests_active_pair,where:status <> 'rejected'" json:"-"`
	PairHigh    uint      `gorm:"not null;uniqueIndex:idx_friend_requests_active_pair,where:status <> 'rejected'" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Friend request status constants
const (
	FriendRequestStatusPending  = "pending"
	FriendRequestStatusAccepted = "accepted"
	FriendRequestStatusRejected = "rejected"
)

// Responses a target may give to a pending request
const (
	FriendActionAccept = "accept"
	FriendActionReject = "reject"
)

// StatusForAction maps a response action to the status it produces.
func StatusForAction(action string) (string, bool) {
	switch action {
	case FriendActionAccept:
		return FriendRequestStatusAccepted, true
	case FriendActionReject:
		return FriendRequestStatusRejected, true
	}
	return "", false
}

// NewFriendRequest builds a pending request from requester to target.
func NewFriendRequest(requesterID, targetID uint, now time.Time) *FriendRequest {
	req := &FriendRequest{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      FriendRequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	req.PairLow, req.PairHigh = OrderedPair(requesterID, targetID)
	return req
}

// OrderedPair normalizes two user ids into (low, high).
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// IsActive reports whether the record blocks a new request for its pair.
func (f *FriendRequest) IsActive() bool {
	return f.Status == FriendRequestStatusPending || f.Status == FriendRequestStatusAccepted
}

// Counterparty returns the other side of the relationship from userID.
func (f *FriendRequest) Counterparty(userID uint) uint {
	if f.RequesterID == userID {
		return f.TargetID
	}
	return f.RequesterID
}

// Involves reports whether userID is either party.
func (f *FriendRequest) Involves(userID uint) bool {
	return f.RequesterID == userID || f.TargetID == userID
}

func IsValidFriendRequestStatus(status string) bool {
	switch status {
	case FriendRequestStatusPending, FriendRequestStatusAccepted, FriendRequestStatusRejected:
		return true
	}
	return false
}

// BeforeCreate fills the id and pair columns and rejects self-requests.
func (f *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.RequesterID == 0 || f.TargetID == 0 || f.RequesterID == f.TargetID {
		return gorm.ErrInvalidData
	}
	if f.Status == "" {
		f.Status = FriendRequestStatusPending
	}
	if !IsValidFriendRequestStatus(f.Status) {
		return gorm.ErrInvalidData
	}
	f.PairLow, f.PairHigh = OrderedPair(f.RequesterID, f.TargetID)
	return nil
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

// FriendSummary is one entry in a user's friends list.
type FriendSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// PendingFriendRequest is one entry in a user's received-requests inbox.
type PendingFriendRequest struct {
	ID                string    `json:"id"`
	RequesterID       uint      `json:"requester_id"`
	RequesterUsername string    `json:"requester_username"`
	CreatedAt         time.Time `json:"created_at"`
}
