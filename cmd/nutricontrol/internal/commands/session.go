package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"github.com/rs/zerolog/log"

	"github.com/nutricontrol/nutricontrol/internal/apierror"
	"github.com/nutricontrol/nutricontrol/internal/credentials"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
	"github.com/nutricontrol/nutricontrol/internal/session"
)

// LoginCmd signs in and persists the session token.
type LoginCmd struct {
	Email string `arg:"" help:"Account email"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(globals.stdin())
	if err != nil {
		return err
	}
	defer password.Destroy()

	ticket := a.state.Begin()
	resp, err := a.auth.Login(ctx, l.Email, bytes.TrimRight(password.Bytes(), "\r"))
	if err != nil {
		return fmt.Errorf("login failed: %s", apierror.Message(err))
	}

	if err := a.state.Establish(ticket, resp); err != nil {
		return fmt.Errorf("failed to establish session: %w", err)
	}

	user := a.state.CurrentUser()
	fmt.Fprintf(globals.stdout(), "Signed in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

// readPassword reads one line into locked memory.
func readPassword(r io.Reader) (*memguard.LockedBuffer, error) {
	buf, err := memguard.NewBufferFromReaderUntil(r, '\n')
	if err != nil && !errors.Is(err, io.EOF) {
		if buf != nil {
			buf.Destroy()
		}
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if buf == nil || buf.Size() == 0 {
		if buf != nil {
			buf.Destroy()
		}
		return nil, errors.New("password is required on stdin")
	}
	return buf, nil
}

// LogoutCmd ends the session and removes the persisted token.
type LogoutCmd struct{}

func (l *LogoutCmd) Run(globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.state.Terminate(session.ReasonLogout) {
		fmt.Fprintln(globals.stdout(), "Not signed in.")
		return nil
	}

	a.router.Navigate(navigation.LoginPath)
	fmt.Fprintln(globals.stdout(), "Signed out.")
	return nil
}

// StatusCmd shows who is signed in and when the token expires.
type StatusCmd struct{}

func (s *StatusCmd) Run(globals *Globals) error {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	out := globals.stdout()
	user := a.state.CurrentUser()
	if user == nil {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}

	fmt.Fprintf(out, "Signed in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)

	creds, ok := a.store.Load()
	if !ok {
		return nil
	}
	fmt.Fprintf(out, "Token:   %s\n", credentials.Fingerprint(creds.Token))
	if exp, err := credentials.ExpiresAt(creds.Token); err == nil {
		fmt.Fprintf(out, "Expires: %s\n", exp.Local().Format("02/01/2006 15:04"))
	} else {
		log.Debug().Err(err).Msg("token has no readable expiry")
	}
	return nil
}
