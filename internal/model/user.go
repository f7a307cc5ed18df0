package model

import (
	"time"
)

type User struct {
	ID                 string     `db:"id" json:"id"`
	Email              string     `db:"email" json:"email"`
	Name               string     `db:"name" json:"name"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	MilestoneReminders bool       `db:"milestone_reminders" json:"milestoneReminders"`
	WeeklyDigest       bool       `db:"weekly_digest" json:"weeklyDigest"`
	EmailVerifiedAt    *time.Time `db:"email_verified_at" json:"emailVerifiedAt"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}
