// Package client is the HTTP client for the PaperHub API.
//
// Non-2xx answers are returned as *APIError, which unwraps to the sentinel
// errors of internal/common (and ErrUnauthorized), so callers match them
// with errors.Is. Transport failures unwrap to ErrUnavailable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/client/models"
	"github.com/dmitrijs2005/paperhub/internal/common"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetToken sets the session token sent with authenticated calls.
func (c *Client) SetToken(token string) { c.token = token }

// HTTPClient exposes the underlying client, e.g. for fetching presigned URLs.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

func (c *Client) send(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set(common.AccessTokenHeaderName, c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Signup registers an account and returns its session token.
func (c *Client) Signup(ctx context.Context, in models.SignupRequest) (string, error) {
	var out tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", in, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, secret string) (string, error) {
	var out tokenResponse
	in := map[string]string{"email": email, "secret": secret}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/profile", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodPut, "/auth/profile", upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ForgotPassword asks the server to send a reset code to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword sets a new secret using a reset code.
func (c *Client) ResetPassword(ctx context.Context, email, code, newSecret string) error {
	in := map[string]string{"email": email, "code": code, "newSecret": newSecret}
	return c.doJSON(ctx, http.MethodPost, "/auth/verify-otp", in, nil)
}

// Upload streams a paper file together with its metadata.
func (c *Client) Upload(ctx context.Context, meta models.PaperMetadata, filename string, file io.Reader) (*models.Paper, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		fields := [][2]string{
			{"subject", meta.Subject},
			{"courseCode", meta.CourseCode},
			{"examYear", strconv.Itoa(meta.ExamYear)},
			{"examName", meta.ExamName},
			{"category", meta.Category},
		}
		for _, f := range fields {
			if err := mw.WriteField(f[0], f[1]); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(fw, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/papers/upload", pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var p models.Paper
	if err := c.send(req, &p); err != nil {
		_ = pr.Close()
		return nil, err
	}
	return &p, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]models.Paper, error) {
	path := "/papers/search"
	if query != "" {
		path += "?query=" + url.QueryEscape(query)
	}
	var out []models.Paper
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Paper(ctx context.Context, id string) (*models.Paper, error) {
	var p models.Paper
	if err := c.doJSON(ctx, http.MethodGet, "/papers/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Download records a download and returns a short-lived URL for the file.
func (c *Client) Download(ctx context.Context, id string) (*models.Download, error) {
	var d models.Download
	if err := c.doJSON(ctx, http.MethodPost, "/papers/"+url.PathEscape(id)+"/download", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}
