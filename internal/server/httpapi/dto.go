package httpapi

import (
	"reflect"
	"strings"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/go-playground/validator/v10"
)

type signupRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"max=32"`
	Secret    string `json:"secret" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email  string `json:"email" validate:"required,max=254"`
	Secret string `json:"secret" validate:"required,max=72"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type updateProfileRequest struct {
	FirstName  *string `json:"firstName" validate:"omitempty,max=100"`
	LastName   *string `json:"lastName" validate:"omitempty,max=100"`
	Bio        *string `json:"bio" validate:"omitempty,max=2000"`
	ProfilePic *string `json:"profilePic" validate:"omitempty,max=2048"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type verifyOtpRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Code      string `json:"code" validate:"required,len=6,numeric"`
	NewSecret string `json:"newSecret" validate:"required,min=8,max=72"`
}

type uploadForm struct {
	Subject    string `validate:"required,max=200"`
	CourseCode string `validate:"required,max=50"`
	ExamYear   int    `validate:"required,gte=1900,lte=2100"`
	ExamName   string `validate:"max=200"`
	Category   string `validate:"required,max=100"`
}

type ackResponse struct {
	Status string `json:"status"`
}

type downloadResponse struct {
	URL       string `json:"url"`
	Downloads int64  `json:"downloads"`
}

// UserView is the public projection of a user. It never carries the hash.
type UserView struct {
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

type UploaderView struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ProfilePic string `json:"profilePic"`
	Level      string `json:"level"`
}

type PaperView struct {
	ID         string       `json:"id"`
	Subject    string       `json:"subject"`
	CourseCode string       `json:"courseCode"`
	ExamYear   int          `json:"examYear"`
	ExamName   string       `json:"examName"`
	Category   string       `json:"category"`
	FileKey    string       `json:"fileKey"`
	Uploader   UploaderView `json:"uploader"`
	CreatedAt  time.Time    `json:"createdAt"`
}

func toUserView(u *models.User) UserView {
	return UserView{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone,
		Points:     u.Points,
		Level:      u.Level,
		ProfilePic: u.ProfilePic,
		Bio:        u.Bio,
		Downloads:  u.Downloads,
		CreatedAt:  u.CreatedAt,
	}
}

func toPaperView(p *models.PaperWithUploader) PaperView {
	return PaperView{
		ID:         p.ID,
		Subject:    p.Subject,
		CourseCode: p.CourseCode,
		ExamYear:   p.ExamYear,
		ExamName:   p.ExamName,
		Category:   p.Category,
		FileKey:    p.StorageKey,
		Uploader: UploaderView{
			ID:         p.Uploader.ID,
			FirstName:  p.Uploader.FirstName,
			LastName:   p.Uploader.LastName,
			ProfilePic: p.Uploader.ProfilePic,
			Level:      p.Uploader.Level,
		},
		CreatedAt: p.CreatedAt,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return lowerFirst(f.Name)
		}
		return name
	})
	return v
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// validationMessage describes the first failed rule of a validator error.
func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "email":
			return fe.Field() + " must be a valid email"
		case "min", "max", "len", "gte", "lte":
			return fe.Field() + " must satisfy " + fe.Tag() + "=" + fe.Param()
		}
		return fe.Field() + " is invalid"
	}
	return "invalid request"
}
