package model

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Account represents a platform user (student, teacher or admin).
type Account struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Class represents a classroom owned by a teacher.
type Class struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	TeacherID int       `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
}
