package user

import "time"

type User struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username" gorm:"uniqueIndex"`
	NIM       string    `json:"nim"` // numéro d'étudiant, vérifié à l'inscription
	Password  string    `json:"-" gorm:"column:password"`
}

func (User) TableName() string {
	return "users"
}
