package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ktakita1011/MiniKaggle/internal/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCompetitionFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "competition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCompetition(t *testing.T) {
	path := writeCompetitionFile(t, `
competition:
  name: "House Price Prediction"
  optimization_direction: "min"
  metric: "rmse"
  max_submissions: 100
  stop_final_submission_select: false
  answer_column_name: "target"
  answer_file: "./data/answer.csv"
`)

	cfg := &Config{CompetitionConfigPath: path}
	require.NoError(t, cfg.LoadCompetition())

	assert.Equal(t, "House Price Prediction", cfg.Competition.Name)
	assert.Equal(t, 100, cfg.Competition.MaxSubmissions)
	assert.Equal(t, metric.Min, cfg.Competition.Direction)
	assert.Equal(t, metric.RMSE, cfg.Competition.MetricKind)
	assert.False(t, cfg.Competition.StopFinalSubmissionSelect)
}

func TestLoadCompetitionInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad direction", `
competition:
  optimization_direction: "sideways"
  metric: "rmse"
  max_submissions: 10
  answer_column_name: "target"
  answer_file: "a.csv"
`},
		{"bad metric", `
competition:
  optimization_direction: "min"
  metric: "bleu"
  max_submissions: 10
  answer_column_name: "target"
  answer_file: "a.csv"
`},
		{"zero quota", `
competition:
  optimization_direction: "min"
  metric: "mae"
  max_submissions: 0
  answer_column_name: "target"
  answer_file: "a.csv"
`},
		{"missing answer column", `
competition:
  optimization_direction: "min"
  metric: "mae"
  max_submissions: 10
  answer_file: "a.csv"
`},
		{"missing answer file", `
competition:
  optimization_direction: "min"
  metric: "mae"
  max_submissions: 10
  answer_column_name: "target"
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{CompetitionConfigPath: writeCompetitionFile(t, tc.body)}
			require.ErrorIs(t, cfg.LoadCompetition(), ErrInvalid)
		})
	}
}

func TestLoadCompetitionMissingFile(t *testing.T) {
	cfg := &Config{CompetitionConfigPath: filepath.Join(t.TempDir(), "nope.yaml")}
	require.ErrorIs(t, cfg.LoadCompetition(), ErrInvalid)
}
