package money

import (
	"testing"

	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "123.45", want: "123.45"},
		{in: "123,45", want: "123.45"},
		{in: " 300000 ", want: "300000"},
		{in: "0.01", want: "0.01"},
		{in: "1.50", want: "1.5"},
		{in: "0", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "99999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestPercentNeverDividesByZero(t *testing.T) {
	got := Percent(decimal.NewFromInt(50000), decimal.Zero)
	assert.True(t, got.IsZero())

	got = Percent(decimal.NewFromInt(400000), decimal.NewFromInt(1000000))
	assert.Equal(t, 40.0, Round(got, 2))
}

func TestSumIsExact(t *testing.T) {
	var parts []decimal.Decimal
	for i := 0; i < 10; i++ {
		parts = append(parts, decimal.RequireFromString("0.1"))
	}
	assert.True(t, Sum(parts...).Equal(decimal.NewFromInt(1)))
	assert.True(t, Sum().IsZero())
}
