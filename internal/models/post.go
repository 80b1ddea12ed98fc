package models

import (
	"time"
)

type Post struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GroupID  uint       `gorm:"not null;index" json:"group_id"`
	AuthorID uint       `gorm:"not null;index" json:"author_id"`
	Title    string     `gorm:"size:200;not null" json:"title"`
	Message  string     `gorm:"type:text;not null" json:"message"`
	IsEvent  bool       `gorm:"not null;default:false;index" json:"is_event"`
	EventAt  *time.Time `gorm:"index" json:"event_at"`

	Author User  `gorm:"foreignKey:AuthorID" json:"-"`
	Group  Group `gorm:"foreignKey:GroupID" json:"-"`
}

func (p *Post) IsAuthor(userID uint) bool {
	return p.AuthorID == userID
}

// IsCalendarEvent reports whether the post belongs on a calendar.
func (p *Post) IsCalendarEvent() bool {
	return p.IsEvent && p.EventAt != nil
}

type Comment struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	EditedAt  *time.Time `json:"edited_at"`

	PostID   uint   `gorm:"not null;index" json:"post_id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Text     string `gorm:"type:text;not null" json:"text"`

	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

func (c *Comment) IsAuthor(userID uint) bool {
	return c.AuthorID == userID
}

// Attendance is a user's RSVP to an event post.
type Attendance struct {
	PostID    uint      `gorm:"primaryKey" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

const (
	EventFlagYes = "Yes"
	EventFlagNo  = "No"
)

type PostResponse struct {
	ID              uint              `json:"_id,string"`
	GroupID         uint              `json:"group_id,string"`
	GroupName       string            `json:"group_name,omitempty"`
	Title           string            `json:"post_title"`
	Message         string            `json:"post_message"`
	EventButton     string            `json:"event_button"`
	EventDate       *time.Time        `json:"event_date"`
	CreatorID       uint              `json:"creator,string"`
	CreatorUsername string            `json:"creator_username"`
	DatePosted      time.Time         `json:"date_posted"`
	UpdatedAt       time.Time         `json:"updated_at"`
	AttendeeCount   *int64            `json:"attendee_count,omitempty"`
	Comments        []CommentResponse `json:"comments,omitempty"`
}

func (p *Post) ToResponse() PostResponse {
	flag := EventFlagNo
	if p.IsEvent {
		flag = EventFlagYes
	}
	creator := p.Author.Username
	if creator == "" {
		creator = "Unknown User"
	}
	return PostResponse{
		ID:              p.ID,
		GroupID:         p.GroupID,
		GroupName:       p.Group.Name,
		Title:           p.Title,
		Message:         p.Message,
		EventButton:     flag,
		EventDate:       p.EventAt,
		CreatorID:       p.AuthorID,
		CreatorUsername: creator,
		DatePosted:      p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type CommentResponse struct {
	ID         uint       `json:"_id,string"`
	PostID     uint       `json:"post_id,string"`
	UserID     uint       `json:"user_id,string"`
	Username   string     `json:"username"`
	Text       string     `json:"comment_text"`
	DatePosted time.Time  `json:"date_posted"`
	LastEdited *time.Time `json:"last_edited,omitempty"`
}

func (c *Comment) ToResponse() CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		PostID:     c.PostID,
		UserID:     c.AuthorID,
		Username:   c.Author.Username,
		Text:       c.Text,
		DatePosted: c.CreatedAt,
		LastEdited: c.EditedAt,
	}
}
