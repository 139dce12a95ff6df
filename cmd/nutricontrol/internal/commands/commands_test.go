package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricontrol/nutricontrol/internal/client"
	"github.com/nutricontrol/nutricontrol/internal/config"
	"github.com/nutricontrol/nutricontrol/internal/models"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
	"github.com/nutricontrol/nutricontrol/internal/testutil"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	token := testutil.Token(t, time.Now().Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/auth/login":
			var req models.LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "secret1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(models.LoginResponse{
				Name: "Ana", Email: req.Email, Perfil: "nutri", Token: token,
			})
		case "/api/v1/pacientes":
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode([]models.Patient{
				{ID: 1, FullName: "José Antônio", CPF: "12345678901", LastConsultation: "2025-03-01T10:00:00"},
				{ID: 2, FullName: "Maria Souza", CPF: "98765432100"},
			})
		case "/api/v1/relatorios/consultas/4/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.7 report"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGlobals(t *testing.T, apiURL, stateDir string) (*Globals, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	return &Globals{
		ConfigFile: filepath.Join(stateDir, "absent.yaml"),
		APIURL:     apiURL,
		StateDir:   stateDir,
		Out:        out,
	}, out
}

func TestSessionLifecycle(t *testing.T) {
	srv := newBackend(t)
	stateDir := t.TempDir()
	ctx := context.Background()

	globals, out := newGlobals(t, srv.URL, stateDir)
	globals.In = strings.NewReader("secret1\n")

	require.NoError(t, (&LoginCmd{Email: "ana@clinic.com"}).Run(ctx, globals))
	assert.Contains(t, out.String(), "Signed in as Ana <ana@clinic.com> (nutri)")

	// a new process picks up the persisted session
	globals, out = newGlobals(t, srv.URL, stateDir)
	require.NoError(t, (&StatusCmd{}).Run(globals))
	assert.Contains(t, out.String(), "Signed in as Ana")
	assert.Contains(t, out.String(), "Expires:")

	globals, out = newGlobals(t, srv.URL, stateDir)
	require.NoError(t, (&PatientsListCmd{Filter: "jose"}).Run(ctx, globals))
	assert.Contains(t, out.String(), "José Antônio")
	assert.Contains(t, out.String(), "123.456.789-01")
	assert.Contains(t, out.String(), "01/03/2025")
	assert.NotContains(t, out.String(), "Maria")

	globals, out = newGlobals(t, srv.URL, stateDir)
	require.NoError(t, (&LogoutCmd{}).Run(globals))
	assert.Contains(t, out.String(), "Signed out.")

	globals, out = newGlobals(t, srv.URL, stateDir)
	require.NoError(t, (&StatusCmd{}).Run(globals))
	assert.Contains(t, out.String(), "Not signed in.")

	globals, _ = newGlobals(t, srv.URL, stateDir)
	err := (&PatientsListCmd{}).Run(ctx, globals)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newBackend(t)

	globals, _ := newGlobals(t, srv.URL, t.TempDir())
	globals.In = strings.NewReader("nope\n")

	err := (&LoginCmd{Email: "ana@clinic.com"}).Run(context.Background(), globals)
	require.Error(t, err)
	assert.Contains(t, err.Error(), client.MsgLoginFailed)
}

func TestLogin_BoltBackend(t *testing.T) {
	srv := newBackend(t)
	stateDir := t.TempDir()

	globals, _ := newGlobals(t, srv.URL, stateDir)
	globals.Backend = config.BackendBolt
	globals.In = strings.NewReader("secret1")

	require.NoError(t, (&LoginCmd{Email: "ana@clinic.com"}).Run(context.Background(), globals))

	_, err := os.Stat(filepath.Join(stateDir, "session.db"))
	require.NoError(t, err)

	globals, out := newGlobals(t, srv.URL, stateDir)
	globals.Backend = config.BackendBolt
	require.NoError(t, (&StatusCmd{}).Run(globals))
	assert.Contains(t, out.String(), "Signed in as Ana")
}

func TestReadPassword(t *testing.T) {
	buf, err := readPassword(strings.NewReader("secret1\nignored"))
	require.NoError(t, err)
	assert.Equal(t, "secret1", string(buf.Bytes()))
	buf.Destroy()

	_, err = readPassword(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReport_WritesFile(t *testing.T) {
	srv := newBackend(t)
	stateDir := t.TempDir()
	ctx := context.Background()

	globals, _ := newGlobals(t, srv.URL, stateDir)
	globals.In = strings.NewReader("secret1\n")
	require.NoError(t, (&LoginCmd{Email: "ana@clinic.com"}).Run(ctx, globals))

	output := filepath.Join(t.TempDir(), "report.pdf")
	globals, out := newGlobals(t, srv.URL, stateDir)
	require.NoError(t, (&ReportCmd{Kind: "consultation", ID: 4, Output: output}).Run(ctx, globals))
	assert.Contains(t, out.String(), "Saved")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 report", string(data))
}

func TestNewApp_InvalidBackend(t *testing.T) {
	globals, _ := newGlobals(t, "http://localhost:8081", t.TempDir())
	globals.Backend = "redis"

	_, err := newApp(globals)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store_backend")
}

func TestLogSignInRequired(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := log.Logger
	log.Logger = zerolog.New(buf)
	t.Cleanup(func() { log.Logger = prev })

	logSignInRequired("/pacientes")
	assert.Empty(t, buf.String())

	logSignInRequired(navigation.LoginDestination("/pacientes/3"))
	assert.Contains(t, buf.String(), `"return_to":"/pacientes/3"`)
	assert.Contains(t, buf.String(), "Sign in required")
}
