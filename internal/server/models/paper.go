// Package models defines server-side data models persisted in the database.
package models

import "time"

// Paper is a catalog entry. The binary itself lives in object storage under
// StorageKey; the row only carries metadata and the uploader reference.
type Paper struct {
	ID         string
	Subject    string
	CourseCode string
	ExamYear   int
	ExamName   string
	Category   string
	// StorageKey is the object-storage key of the uploaded binary.
	StorageKey string
	// UploaderID must reference an existing user.
	UploaderID string
	CreatedAt  time.Time
}

// Uploader is the denormalized uploader identity attached to search results.
type Uploader struct {
	ID         string
	FirstName  string
	LastName   string
	ProfilePic string
	Level      string
}

// PaperWithUploader is a Paper joined with its uploader.
type PaperWithUploader struct {
	Paper
	Uploader Uploader
}
