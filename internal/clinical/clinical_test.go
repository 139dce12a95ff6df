package clinical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricontrol/nutricontrol/internal/models"
)

func TestBMI(t *testing.T) {
	bmi, err := BMI(70, 175)
	require.NoError(t, err)
	assert.Equal(t, 22.86, bmi)

	bmi, err = BMI(70, 1.75)
	require.NoError(t, err)
	assert.Equal(t, 22.86, bmi)

	_, err = BMI(0, 1.75)
	assert.ErrorIs(t, err, ErrInvalidWeight)

	_, err = BMI(70, 0)
	assert.ErrorIs(t, err, ErrInvalidHeight)
}

func TestBMIClass(t *testing.T) {
	assert.Equal(t, "underweight", BMIClass(17))
	assert.Equal(t, "normal", BMIClass(22.86))
	assert.Equal(t, "overweight", BMIClass(27))
	assert.Equal(t, "obesity III", BMIClass(45))
}

func TestFormatCPF(t *testing.T) {
	tests := map[string]string{
		"12345678901":    "123.456.789-01",
		"123.456.789-01": "123.456.789-01",
		"1234":           "123.4",
		"1234567":        "123.456.7",
		"1234567890":     "123.456.789-0",
		"":               "",
		"123456789012":   "123456789012",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCPF(in), in)
	}
}

func TestFormatPhone(t *testing.T) {
	tests := map[string]string{
		"11987654321":     "(11) 98765-4321",
		"1133334444":      "(11) 3333-4444",
		"(11) 98765-4321": "(11) 98765-4321",
		"119":             "(11) 9",
		"11":              "11",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatPhone(in), in)
	}
}

func TestStripMaskAndWhatsApp(t *testing.T) {
	assert.Equal(t, "12345678901", StripMask("123.456.789-01"))
	assert.Equal(t, "https://wa.me/5511987654321", WhatsAppLink("(11) 98765-4321"))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "MS", Initials("maria da silva"))
	assert.Equal(t, "JO", Initials("joão"))
	assert.Equal(t, "ÁS", Initials("ágata souza"))
	assert.Equal(t, "NN", Initials("   "))
}

func TestAge(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	age, err := Age("1990-06-15", now)
	require.NoError(t, err)
	assert.Equal(t, 35, age)

	age, err = Age("1990-06-16", now)
	require.NoError(t, err)
	assert.Equal(t, 34, age)

	_, err = Age("15/06/1990", now)
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "15/06/2025", FormatDate("2025-06-15"))
	assert.Equal(t, "15/06/2025", FormatDate("2025-06-15T10:30:00"))
	assert.Equal(t, "15/06/2025", FormatDate("2025-06-15T10:30:00Z"))
	assert.Equal(t, "-", FormatDate(""))
	assert.Equal(t, "-", FormatDate("yesterday"))
}

func TestParseWaterIntake(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{in: "2,5 L", want: 2.5, wantOK: true},
		{in: "3 litros", want: 3, wantOK: true},
		{in: "1.75", want: 1.75, wantOK: true},
		{in: "bastante", wantOK: false},
		{in: "", wantOK: false},
		{in: "1.2.3", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseWaterIntake(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}

func TestFilterPatients(t *testing.T) {
	patients := []models.Patient{
		{ID: 1, FullName: "José Antônio", CPF: "123.456.789-01"},
		{ID: 2, FullName: "Maria Souza", CPF: "987.654.321-00"},
		{ID: 3, FullName: "Ana Paula", CPF: ""},
	}

	ids := func(ps []models.Patient) []int64 {
		var out []int64
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1}, ids(FilterPatients(patients, "antonio")))
	assert.Equal(t, []int64{1}, ids(FilterPatients(patients, "JOSE")))
	assert.Equal(t, []int64{2}, ids(FilterPatients(patients, "654321")))
	assert.Equal(t, []int64{2}, ids(FilterPatients(patients, "987.654")))
	assert.Equal(t, []int64{1, 2, 3}, ids(FilterPatients(patients, "a")))
	assert.Len(t, FilterPatients(patients, ""), 3)
	assert.Empty(t, FilterPatients(patients, "zzz"))
}
