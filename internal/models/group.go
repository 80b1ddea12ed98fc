package models

import (
	"strings"
	"time"
)

type AccessMode string

const (
	AccessPublic  AccessMode = "Public"
	AccessPrivate AccessMode = "Private"
)

// ParseAccessMode accepts "public"/"private" in any case.
func ParseAccessMode(s string) (AccessMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return AccessPublic, true
	case "private":
		return AccessPrivate, true
	}
	return "", false
}

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

type Group struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string     `gorm:"size:100;not null;index" json:"name"`
	Description string     `gorm:"size:2000;not null" json:"description"`
	Category    string     `gorm:"size:100;not null;index" json:"category"`
	Location    string     `gorm:"size:100;not null" json:"location"`
	Access      AccessMode `gorm:"type:varchar(10);not null" json:"access"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`

	IconURL string `json:"icon_url"`
	IconKey string `json:"-"`

	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (g *Group) IsPrivate() bool {
	return g.Access == AccessPrivate
}

func (g *Group) IsOwner(userID uint) bool {
	return g.OwnerID == userID
}

type Membership struct {
	GroupID  uint       `gorm:"primaryKey" json:"group_id"`
	UserID   uint       `gorm:"primaryKey;index" json:"user_id"`
	Role     MemberRole `gorm:"type:varchar(20);default:'member'" json:"role"`
	JoinedAt time.Time  `gorm:"autoCreateTime" json:"joined_at"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

type JoinRequestStatus string

const (
	JoinPending  JoinRequestStatus = "pending"
	JoinAccepted JoinRequestStatus = "accepted"
	JoinRejected JoinRequestStatus = "rejected"
)

// JoinRequest is a pending request to enter a private group. Rows only exist
// while pending; deciding a request deletes it.
type JoinRequest struct {
	ID        uint              `gorm:"primarykey" json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	GroupID   uint              `gorm:"not null;uniqueIndex:idx_join_request_pair" json:"group_id"`
	UserID    uint              `gorm:"not null;uniqueIndex:idx_join_request_pair;index" json:"user_id"`
	Status    JoinRequestStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

type GroupResponse struct {
	ID          uint       `json:"_id,string"`
	Name        string     `json:"group_name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	Access      AccessMode `json:"group_access"`
	OwnerID     uint       `json:"group_owner,string"`
	IconURL     string     `json:"icon_url,omitempty"`
	URL         string     `json:"url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// GroupDetailResponse is the group page: the group itself plus its feed.
type GroupDetailResponse struct {
	GroupResponse
	OwnerUsername string         `json:"owner_username"`
	IsOwner       bool           `json:"is_owner"`
	Feed          []PostResponse `json:"feed"`
}

func (g *Group) ToResponse() GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Category:    g.Category,
		Location:    g.Location,
		Access:      g.Access,
		OwnerID:     g.OwnerID,
		IconURL:     g.IconURL,
		CreatedAt:   g.CreatedAt,
	}
}

// GroupSummary is the short form used in the user's group lists.
type GroupSummary struct {
	ID   uint   `json:"_id,string"`
	Name string `json:"group_name"`
}

// JoinRequestResponse identifies a request by its requester. user_id is the
// value the accept and reject routes take.
type JoinRequestResponse struct {
	UserID      uint      `json:"user_id,string"`
	Username    string    `json:"username"`
	RequestedAt time.Time `json:"requested_at"`
}

func (r *JoinRequest) ToResponse() JoinRequestResponse {
	return JoinRequestResponse{
		UserID:      r.UserID,
		Username:    r.User.Username,
		RequestedAt: r.CreatedAt,
	}
}
