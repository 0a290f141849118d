package export

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatement() Statement {
	return Statement{
		TutorName:   "Kari Nordmann",
		PeriodStart: "2024-01-15",
		PeriodEnd:   "2024-01-28",
		Status:      "approved",
		Total:       decimal.RequireFromString("1005.00"),
		Lines: []StatementLine{
			{Date: "2024-01-16", Time: "14:00", Topic: "Algebra", Level: "8th grade", Duration: "60 min", Amount: decimal.RequireFromString("400.00")},
			{Date: "2024-01-20", Time: "15:00", Topic: "Geometry", Level: "8th grade", Duration: "90 min", Amount: decimal.RequireFromString("605.00")},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	data, err := RenderCSV(sampleStatement())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Date,Time,Topic,Level,Duration,Amount (NOK)", lines[0])
	assert.Equal(t, "2024-01-16,14:00,Algebra,8th grade,60 min,400.00", lines[1])
	assert.Equal(t, ",,,,Total,1005.00", lines[3])
}

func TestRenderCSVEmptyStatement(t *testing.T) {
	st := sampleStatement()
	st.Lines = nil
	st.Total = decimal.Zero

	data, err := RenderCSV(st)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, ",,,,Total,0.00", lines[1])
}

func TestRenderPDF(t *testing.T) {
	data, err := RenderPDF(sampleStatement())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.Greater(t, len(data), 500)
}
