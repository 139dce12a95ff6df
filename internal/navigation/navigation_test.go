package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginDestination(t *testing.T) {
	assert.Equal(t, Destination("/login"), LoginDestination(""))
	assert.Equal(t, Destination("/login?returnUrl=%2Fpacientes%2F42"), LoginDestination("/pacientes/42"))
	assert.Equal(t, Destination("/login"), LoginDestination(LoginDestination("/pacientes/42")))
}

func TestReturnTo_RoundTrip(t *testing.T) {
	dest := Destination("/consultas/comparar/7?consultaInicialId=1&consultaFinalId=2")
	assert.Equal(t, dest, ReturnTo(LoginDestination(dest)))
}

func TestSanitizeReturnTo(t *testing.T) {
	tests := []struct {
		raw  string
		want Destination
	}{
		{raw: "/pacientes", want: "/pacientes"},
		{raw: "/pacientes/3?tab=consultas", want: "/pacientes/3?tab=consultas"},
		{raw: "", want: DashboardPath},
		{raw: "pacientes", want: DashboardPath},
		{raw: "//evil.example.com", want: DashboardPath},
		{raw: "/\\evil.example.com", want: DashboardPath},
		{raw: "https://evil.example.com/dashboard", want: DashboardPath},
		{raw: "javascript:alert(1)", want: DashboardPath},
		{raw: "/login", want: DashboardPath},
		{raw: "/login?returnUrl=/x", want: DashboardPath},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeReturnTo(tt.raw))
		})
	}
}

func TestRouter(t *testing.T) {
	router := NewRouter(DashboardPath)

	var seen []Destination
	router.OnNavigate(func(d Destination) { seen = append(seen, d) })

	router.Navigate("/pacientes")
	router.Navigate(LoginDestination("/pacientes"))

	assert.Equal(t, LoginDestination("/pacientes"), router.Current())
	require.Len(t, router.visited(), 2)
	assert.Equal(t, []Destination{DashboardPath, "/pacientes"}, router.visited())
	assert.Equal(t, []Destination{"/pacientes", LoginDestination("/pacientes")}, seen)
}

func TestNavigatorFunc(t *testing.T) {
	var got Destination
	var nav Navigator = NavigatorFunc(func(d Destination) { got = d })
	nav.Navigate("/dashboard")
	assert.Equal(t, Destination("/dashboard"), got)
}
