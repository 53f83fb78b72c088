// Package cli implements paperhub-cli, the command-line client of the
// PaperHub API.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/paperhub/internal/client/client"
	"github.com/dmitrijs2005/paperhub/internal/client/config"
	"github.com/dmitrijs2005/paperhub/internal/client/models"
	"github.com/dmitrijs2005/paperhub/internal/netx"
	"github.com/urfave/cli/v2"
)

// TokenEnvVar is read when --token is not given.
const TokenEnvVar = "PAPERHUB_TOKEN"

// API is the server surface the commands use.
type API interface {
	SetToken(token string)
	Signup(ctx context.Context, in models.SignupRequest) (string, error)
	Login(ctx context.Context, email, secret string) (string, error)
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newSecret string) error
	Upload(ctx context.Context, meta models.PaperMetadata, filename string, file io.Reader) (*models.Paper, error)
	Search(ctx context.Context, query string) ([]models.Paper, error)
	Paper(ctx context.Context, id string) (*models.Paper, error)
	Download(ctx context.Context, id string) (*models.Download, error)
}

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type App struct {
	config *config.Config
	newAPI func(cfg *config.Config) API
	fetch  func(ctx context.Context, url string, w io.Writer) (int64, error)
	api    API
	token  string
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	a := &App{
		config: c,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	var httpClient *client.Client
	a.newAPI = func(cfg *config.Config) API {
		httpClient = client.New(cfg.ServerURL, cfg.RequestTimeout)
		return httpClient
	}
	a.fetch = func(ctx context.Context, url string, w io.Writer) (int64, error) {
		return netx.DownloadTo(ctx, httpClient.HTTPClient(), url, w)
	}
	return a
}

// Command builds the urfave/cli application.
func (a *App) Command() *cli.App {
	return &cli.App{
		Name:      "paperhub-cli",
		Usage:     "share and find past exam papers",
		Writer:    a.out,
		ErrWriter: a.out,
		// errors are returned to main instead of exiting the process
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to JSON config file"},
			&cli.StringFlag{Name: "server", Aliases: []string{"a"}, Usage: "PaperHub API base URL", Value: a.config.ServerURL},
			&cli.DurationFlag{Name: "timeout", Aliases: []string{"t"}, Usage: "timeout for a single API call", Value: a.config.RequestTimeout},
			&cli.StringFlag{Name: "token", Usage: "session token", EnvVars: []string{TokenEnvVar}},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			{
				Name:   "signup",
				Usage:  "create an account",
				Action: a.signup,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
					&cli.StringFlag{Name: "phone"},
				},
			},
			{
				Name:   "login",
				Usage:  "obtain a session token",
				Action: a.login,
				Flags:  []cli.Flag{&cli.StringFlag{Name: "email"}},
			},
			{
				Name:   "profile",
				Usage:  "show your profile, points and level",
				Action: a.profile,
			},
			{
				Name:   "update-profile",
				Usage:  "change name, bio or profile picture",
				Action: a.updateProfile,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
					&cli.StringFlag{Name: "bio"},
					&cli.StringFlag{Name: "profile-pic"},
				},
			},
			{
				Name:   "forgot-password",
				Usage:  "request a password reset code",
				Action: a.forgotPassword,
				Flags:  []cli.Flag{&cli.StringFlag{Name: "email"}},
			},
			{
				Name:   "reset-password",
				Usage:  "set a new password with a reset code",
				Action: a.resetPassword,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "code"},
				},
			},
			{
				Name:      "upload",
				Usage:     "upload a paper",
				ArgsUsage: "<file>",
				Action:    a.upload,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Required: true},
					&cli.StringFlag{Name: "course-code", Required: true},
					&cli.IntFlag{Name: "year", Required: true},
					&cli.StringFlag{Name: "exam-name"},
					&cli.StringFlag{Name: "category", Required: true},
				},
			},
			{
				Name:      "search",
				Usage:     "search papers by subject, course code or exam name",
				ArgsUsage: "[query]",
				Action:    a.search,
			},
			{
				Name:      "download",
				Usage:     "get a download link for a paper",
				ArgsUsage: "<paper-id>",
				Action:    a.download,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "save", Usage: "also fetch the file into the download directory"},
				},
			},
		},
	}
}

// setup applies global flags to the config and builds the API client.
func (a *App) setup(cCtx *cli.Context) error {
	a.config.ServerURL = cCtx.String("server")
	a.config.RequestTimeout = cCtx.Duration("timeout")
	a.token = cCtx.String("token")

	a.api = a.newAPI(a.config)
	if a.token != "" {
		a.api.SetToken(a.token)
	}
	return nil
}

// Run executes the command line args.
func (a *App) Run(ctx context.Context, args []string) error {
	return a.Command().RunContext(ctx, args)
}

func (a *App) requireToken() error {
	if a.token == "" {
		return cli.Exit(fmt.Sprintf("not logged in: pass --token or set %s", TokenEnvVar), 1)
	}
	return nil
}

// valueOrPrompt returns the flag value, asking for it when empty.
func (a *App) valueOrPrompt(cCtx *cli.Context, flag, prompt string) (string, error) {
	if v := cCtx.String(flag); v != "" {
		return v, nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}
