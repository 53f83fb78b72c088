// Package models holds the JSON shapes the CLI exchanges with the PaperHub API.
package models

import "time"

type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Secret    string `json:"secret"`
}

type ProfileUpdate struct {
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	ProfilePic *string `json:"profilePic,omitempty"`
}

// Empty reports whether no field is set.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Bio == nil && u.ProfilePic == nil
}

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Phone      string    `json:"phone"`
	Points     int64     `json:"points"`
	Level      string    `json:"level"`
	ProfilePic string    `json:"profilePic"`
	Bio        string    `json:"bio"`
	Downloads  int64     `json:"downloads"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Uploader struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ProfilePic string `json:"profilePic"`
	Level      string `json:"level"`
}

type Paper struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	CourseCode string    `json:"courseCode"`
	ExamYear   int       `json:"examYear"`
	ExamName   string    `json:"examName"`
	Category   string    `json:"category"`
	FileKey    string    `json:"fileKey"`
	Uploader   Uploader  `json:"uploader"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PaperMetadata is the descriptive part of an upload.
type PaperMetadata struct {
	Subject    string
	CourseCode string
	ExamYear   int
	ExamName   string
	Category   string
}

type Download struct {
	URL       string `json:"url"`
	Downloads int64  `json:"downloads"`
}
