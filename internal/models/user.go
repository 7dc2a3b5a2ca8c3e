package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the stored account document. Password and RefreshToken never leave
// the service; use Sanitized for anything sent to a client.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	FullName     string             `bson:"fullName" json:"fullName"`
	Avatar       string             `bson:"avatar" json:"avatar"`
	CoverImage   string             `bson:"coverImage" json:"coverImage"`
	Password     string             `bson:"password" json:"-"`
	RefreshToken string             `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Sanitized returns a copy with the password hash and refresh token cleared.
func (u User) Sanitized() *User {
	u.Password = ""
	u.RefreshToken = ""
	return &u
}
