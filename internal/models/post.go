package models

import (
	"time"
)

// postPreviewLength is how many characters of the text String returns.
const postPreviewLength = 15

// Post is a text entry authored by a user, optionally filed under a group and
// illustrated with an image stored by the media backend.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"<-:create;index"` // never rewritten after insert
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Author    User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index"`
	Group     *Group    `json:"group,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	Image     string    `json:"image,omitempty"` // media-relative path, empty when absent
}

func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > postPreviewLength {
		runes = runes[:postPreviewLength]
	}
	return string(runes)
}

// PostForm is the payload of the create and edit pages. The image travels
// as a multipart file and is handled outside of binding.
type PostForm struct {
	Text       string `form:"text" validate:"required"`
	Group      string `form:"group" validate:"omitempty,numeric"`
	ClearImage string `form:"image-clear"`
}
