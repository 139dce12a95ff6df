package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/awnumar/memguard"

	"github.com/nutricontrol/nutricontrol/cmd/nutricontrol/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug    bool   `help:"Enable debug mode." env:"NUTRI_DEBUG"`
		Config   string `help:"Config file (default ~/.nutricontrol/config.yaml)" type:"path"`
		APIURL   string `help:"Backend base URL, overrides the config" name:"api-url"`
		StateDir string `help:"Directory holding the session, overrides the config" type:"path"`
		Backend  string `help:"Credential store backend (file, bolt or memory), overrides the config"`
		Version  kong.VersionFlag

		Login         commands.LoginCmd         `cmd:"" help:"Sign in (password is read from stdin)"`
		Logout        commands.LogoutCmd        `cmd:"" help:"Sign out"`
		Status        commands.StatusCmd        `cmd:"" help:"Show the current session"`
		Patients      commands.PatientsCmd      `cmd:"" help:"Manage patients"`
		Consultations commands.ConsultationsCmd `cmd:"" help:"Manage consultations"`
		Dashboard     commands.DashboardCmd     `cmd:"" help:"Show today's overview"`
		Report        commands.ReportCmd        `cmd:"" help:"Download a PDF report"`
		Serve         commands.ServeCmd         `cmd:"" help:"Run the local web app"`
	}
)

func main() {
	defer memguard.Purge()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("nutricontrol"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:      cli.Debug,
		Version:    version,
		ConfigFile: cli.Config,
		APIURL:     cli.APIURL,
		StateDir:   cli.StateDir,
		Backend:    cli.Backend,
	})
	cmd.FatalIfErrorf(err)
}
