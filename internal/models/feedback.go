package models

import "time"

// Feedback is a student's rating and comment for their mess.
type Feedback struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	MessID    string    `db:"mess_id" json:"mess_id"`
	Message   string    `db:"message" json:"message"`
	Rating    int       `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeedbackEntry joins feedback with the submitting student's public profile.
type FeedbackEntry struct {
	Feedback
	StudentName   string  `db:"student_name" json:"student_name"`
	StudentEmail  string  `db:"student_email" json:"student_email"`
	StudentAvatar *string `db:"student_avatar" json:"student_avatar,omitempty"`
}
