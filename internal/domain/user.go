package domain

import "time"

// User is an account. Accounts are created on the first successful login
// for an email address. Role holds the role name ("user", "admin").
type User struct {
	UserID    string    `json:"id" dynamodbav:"user_id" gorm:"primaryKey;size:26"`
	Email     string    `json:"email" dynamodbav:"email" gorm:"uniqueIndex;size:320;not null"`
	Role      string    `json:"role" dynamodbav:"role" gorm:"size:16;not null"`
	Validated bool      `json:"validated" dynamodbav:"validated"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}
