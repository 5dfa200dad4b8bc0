package post

import (
	"time"

	"github.com/ZaXSeT/webteknikmatematika/internal/user"
)

type Comment struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PostID    int64     `json:"postId" gorm:"index"`
	UserID    int64     `json:"userId"`
	ParentID  *int64    `json:"parentId,omitempty" gorm:"index"` // nil = commentaire racine
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	User      user.User `json:"user" gorm:"foreignKey:UserID"`
}

func (Comment) TableName() string {
	return "comments"
}
