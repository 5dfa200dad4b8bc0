package post

import (
	"time"

	"github.com/ZaXSeT/webteknikmatematika/internal/like"
	"github.com/ZaXSeT/webteknikmatematika/internal/user"
)

type Upload struct {
	ID          int64       `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt   time.Time   `json:"createdAt"`
	UserID      int64       `json:"userId" gorm:"index"`
	User        user.User   `json:"user" gorm:"foreignKey:UserID"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Media       []MediaItem `json:"media" gorm:"type:jsonb;serializer:json"`
	Likes       []like.Like `json:"likes" gorm:"foreignKey:PostID"`
	Comments    []Comment   `json:"comments" gorm:"foreignKey:PostID"`
}

func (Upload) TableName() string {
	return "uploads"
}
