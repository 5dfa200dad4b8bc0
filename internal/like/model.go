package like

import (
	"time"

	"github.com/ZaXSeT/webteknikmatematika/internal/user"
)

// Like est une relation d'appartenance (user, post) sans payload.
// Invariant : au plus un like par paire — basculé, jamais cumulé.
type Like struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    int64     `json:"userId" gorm:"index"`
	PostID    int64     `json:"postId" gorm:"index"`
	User      user.User `json:"user" gorm:"foreignKey:UserID"`
}

func (Like) TableName() string {
	return "likes"
}
