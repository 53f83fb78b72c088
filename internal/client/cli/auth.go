package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paperhub/internal/client/models"
	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/urfave/cli/v2"
)

func (a *App) printToken(token string) {
	fmt.Fprintf(a.out, "Token: %s\n", token)
	fmt.Fprintf(a.out, "Run: export %s=%s\n", TokenEnvVar, token)
}

func (a *App) signup(cCtx *cli.Context) error {
	email, err := a.valueOrPrompt(cCtx, "email", "Enter email")
	if err != nil {
		return err
	}
	firstName, err := a.valueOrPrompt(cCtx, "first-name", "Enter first name")
	if err != nil {
		return err
	}

	password, err := getPassword("Choose password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Signup(cCtx.Context, models.SignupRequest{
		FirstName: firstName,
		LastName:  cCtx.String("last-name"),
		Email:     email,
		Phone:     cCtx.String("phone"),
		Secret:    string(password),
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return cli.Exit("this email is already registered", 1)
		}
		return err
	}

	fmt.Fprintln(a.out, "Account created!")
	a.printToken(token)
	return nil
}

func (a *App) login(cCtx *cli.Context) error {
	email, err := a.valueOrPrompt(cCtx, "email", "Enter email")
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Login(cCtx.Context, email, string(password))
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			return cli.Exit("invalid email or password", 1)
		}
		return err
	}

	a.printToken(token)
	return nil
}

func (a *App) profile(cCtx *cli.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}
	u, err := a.api.Profile(cCtx.Context)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) updateProfile(cCtx *cli.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}

	var upd models.ProfileUpdate
	set := func(flag string, dst **string) {
		if cCtx.IsSet(flag) {
			v := cCtx.String(flag)
			*dst = &v
		}
	}
	set("first-name", &upd.FirstName)
	set("last-name", &upd.LastName)
	set("bio", &upd.Bio)
	set("profile-pic", &upd.ProfilePic)
	if upd.Empty() {
		return cli.Exit("nothing to update: pass at least one of --first-name, --last-name, --bio, --profile-pic", 1)
	}

	u, err := a.api.UpdateProfile(cCtx.Context, upd)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) forgotPassword(cCtx *cli.Context) error {
	email, err := a.valueOrPrompt(cCtx, "email", "Enter email")
	if err != nil {
		return err
	}
	if err := a.api.ForgotPassword(cCtx.Context, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "If the email is registered, a reset code is on its way.")
	return nil
}

func (a *App) resetPassword(cCtx *cli.Context) error {
	email, err := a.valueOrPrompt(cCtx, "email", "Enter email")
	if err != nil {
		return err
	}
	code, err := a.valueOrPrompt(cCtx, "code", "Enter reset code")
	if err != nil {
		return err
	}

	password, err := getPassword("Choose new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.ResetPassword(cCtx.Context, email, code, string(password)); err != nil {
		if errors.Is(err, common.ErrInvalidOtp) {
			return cli.Exit("the code is invalid or has expired", 1)
		}
		return err
	}

	fmt.Fprintln(a.out, "Password updated. You can log in now.")
	return nil
}
