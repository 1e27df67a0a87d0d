package domain

import "time"

// VerificationCode is a pending login code. There is at most one per email;
// issuing a new one replaces the previous record.
// ExpiresAt is stored as Unix seconds so DynamoDB can use it as the TTL attribute.
type VerificationCode struct {
	Email     string    `json:"email" dynamodbav:"email" gorm:"primaryKey;size:320"`
	Code      string    `json:"-" dynamodbav:"code" gorm:"size:6;not null"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime" gorm:"index;not null"`
}

// Expired reports whether the code can no longer be used at now.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}
