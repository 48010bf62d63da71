package models

import (
	"time"
)

// User repräsentiert einen Benutzer, dem erzeugte Entitäten und Filter zugeordnet werden.
// Authentifizierung und Credentials liegen außerhalb dieses Kerns.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `json:"username" gorm:"uniqueIndex;not null"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}

// TableName gibt explizit den Tabellennamen an.
func (User) TableName() string {
	return "users"
}
