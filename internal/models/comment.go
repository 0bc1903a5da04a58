package models

import "time"

// Comment is a reply to a post. Comments go away together with their post.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	Post      Post      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Author    User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"<-:create;index"`
}

// CommentForm is the payload of the comment box on the post page.
type CommentForm struct {
	Text string `form:"text" validate:"required"`
}
