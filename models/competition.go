package models

import (
	"time"
)

// Competition is a scoped typing contest owned by its manager. The manager
// counts as a participant whether or not an enrollment row exists.
type Competition struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"size:140;not null"`
	Slug        string     `json:"slug" gorm:"size:160;index"`
	Description string     `json:"description" gorm:"type:text"`
	Language    string     `json:"language" gorm:"size:16;not null;index"`
	// No default tags on the flags: gorm drops zero-valued fields that
	// carry a default, which would persist false as true. Defaults are
	// applied where competitions are created.
	IsPublic    bool       `json:"is_public" gorm:"not null"`
	AllowJoin   bool       `json:"allow_join" gorm:"not null"`
	LiveRanking bool       `json:"live_ranking" gorm:"not null"`
	ManagerID   uint       `json:"manager_id" gorm:"not null;index"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`

	Manager      User                     `json:"-" gorm:"foreignKey:ManagerID"`
	Participants []CompetitionParticipant `json:"participants,omitempty" gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE"`
	Invites      []CompetitionInvite      `json:"-" gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE"`
	Scores       []CompetitionScore       `json:"-" gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE"`
}

type CompetitionParticipant struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CompetitionID uint      `json:"competition_id" gorm:"not null;uniqueIndex:uq_competition_user"`
	UserID        uint      `json:"user_id" gorm:"not null;uniqueIndex:uq_competition_user"`
	JoinedAt      time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// CompetitionInvite is a single-use join credential.
type CompetitionInvite struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	CompetitionID uint       `json:"competition_id" gorm:"not null;index"`
	Token         string     `json:"token" gorm:"size:64;uniqueIndex;not null"`
	Email         string     `json:"email,omitempty" gorm:"size:120"`
	InvitedBy     uint       `json:"invited_by" gorm:"not null"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Used          bool       `json:"used" gorm:"not null;default:false"`
}

// IsValid reports whether the invite can still be redeemed.
func (i *CompetitionInvite) IsValid() bool {
	if i.Used {
		return false
	}
	if i.ExpiresAt != nil && time.Now().After(*i.ExpiresAt) {
		return false
	}
	return true
}

// CompetitionScore rows are append-only; history is never rewritten.
type CompetitionScore struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CompetitionID uint      `json:"competition_id" gorm:"not null;index"`
	UserID        uint      `json:"user_id" gorm:"not null;index"`
	WPM           int       `json:"wpm" gorm:"not null"`
	Accuracy      float64   `json:"accuracy" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
