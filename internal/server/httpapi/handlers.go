package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/server/models"
	"github.com/dmitrijs2005/paperhub/internal/server/ratelimit"
	"github.com/dmitrijs2005/paperhub/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const maxJSONBody = 1 << 20

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("malformed JSON body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return badRequest(validationMessage(err))
	}
	return nil
}

// limitKey spends one hit of the per-key budget, used for limits keyed on
// request content rather than on the client address.
func (s *Server) limitKey(w http.ResponseWriter, r *http.Request, key string) error {
	if s.limiter == nil {
		return nil
	}
	res, err := s.limiter.Allow(r.Context(), key)
	if err != nil {
		s.logger.Error(r.Context(), "rate limit check failed", "error", err)
		return nil
	}
	ratelimit.SetHeaders(w, res)
	if !res.Allowed {
		return common.ErrorTooManyRequests
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok"})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := s.auth.Signup(r.Context(), services.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Secret:    req.Secret,
	})
	if err != nil {
		s.logFailure(r, "signup", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := s.auth.Login(r.Context(), req.Email, req.Secret)
	if err != nil {
		s.logFailure(r, "login", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Profile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.logFailure(r, "get profile", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := s.auth.UpdateProfile(r.Context(), userIDFrom(r.Context()), models.ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		s.logFailure(r, "update profile", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.limitKey(w, r, "forgot:email:"+common.NormalizeEmail(req.Email)); err != nil {
		writeError(w, err)
		return
	}

	if err := s.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.logFailure(r, "forgot password", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ackResponse{Status: "if the email is registered, a code has been sent"})
}

func (s *Server) verifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.limitKey(w, r, "verify:email:"+common.NormalizeEmail(req.Email)); err != nil {
		writeError(w, err)
		return
	}

	if err := s.auth.ResetPassword(r.Context(), req.Email, req.Code, req.NewSecret); err != nil {
		s.logFailure(r, "verify otp", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ackResponse{Status: "password updated"})
}

func (s *Server) uploadPaper(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorKind(w, http.StatusRequestEntityTooLarge, "ValidationFailure", "upload too large")
			return
		}
		writeError(w, badRequest("expected multipart/form-data"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := uploadForm{
		Subject:    r.FormValue("subject"),
		CourseCode: r.FormValue("courseCode"),
		ExamName:   r.FormValue("examName"),
		Category:   r.FormValue("category"),
	}
	if y := strings.TrimSpace(r.FormValue("examYear")); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, badRequest("examYear must be a number"))
			return
		}
		form.ExamYear = year
	}
	if err := s.validate.Struct(form); err != nil {
		writeError(w, badRequest(validationMessage(err)))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, badRequest("file is required"))
		return
	}
	defer file.Close()

	p, err := s.catalog.Upload(r.Context(), userIDFrom(r.Context()), services.Upload{
		PaperMetadata: services.PaperMetadata{
			Subject:    form.Subject,
			CourseCode: form.CourseCode,
			ExamYear:   form.ExamYear,
			ExamName:   form.ExamName,
			Category:   form.Category,
		},
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		s.logFailure(r, "upload", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaperView(p))
}

func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	papers, err := s.catalog.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		s.logFailure(r, "search", err)
		writeError(w, err)
		return
	}

	views := make([]PaperView, 0, len(papers))
	for i := range papers {
		views = append(views, toPaperView(&papers[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.logFailure(r, "get paper", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaperView(p))
}

func (s *Server) downloadPaper(w http.ResponseWriter, r *http.Request) {
	d, err := s.catalog.Download(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.logFailure(r, "download", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{URL: d.URL, Downloads: d.Downloads})
}

// logFailure logs server-side failures at error level and client errors at
// debug level.
func (s *Server) logFailure(r *http.Request, op string, err error) {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), op+" failed", "error", err)
		return
	}
	s.logger.Debug(r.Context(), op+" rejected", "error", err)
}
