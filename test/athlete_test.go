package test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/2beens/athletedash/internal/athlete/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const athleteJSON = `{
	"name": "mila",
	"unit": "lb",
	"bodyweight": 150,
	"height": 1.68,
	"strength": {"bench": 135, "squat": 225, "deadlift": 275},
	"cardio": {"vo2Max": 52, "restingHR": 50},
	"bodyComposition": {"bodyFat": 18, "leanMass": 123},
	"recovery": {"readiness": 90, "hrv": 85},
	"power": {"peakPower": 800},
	"technique": 92
}`

func (s *IntegrationTestSuite) TestAthleteScores() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	resp, body := s.do(ctx, http.MethodPost, "/athlete/scores", athleteJSON)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var report scoring.Report
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	assert.Equal(t, "mila", report.Name)
	for _, score := range []float64{
		report.Scores.Strength,
		report.Scores.Endurance,
		report.Scores.BodyComposition,
		report.Scores.Recovery,
		report.Scores.PowerOutput,
		report.Scores.Technique,
		report.Scores.Overall,
	} {
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
	assert.Equal(t, 0.9, report.Ratios.BenchToBodyweight)
	assert.NotEmpty(t, report.Grade)

	// second call is answered from the cache, with the same result
	resp, cachedBody := s.do(ctx, http.MethodPost, "/athlete/scores", athleteJSON)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, body, cachedBody)

	metricsResp, err := s.httpClient.Get(s.metricsEndpoint)
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	metricsBytes, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(metricsBytes), `athletedash_main_score_computations{kind="score",result="cached"} 1`)
	assert.Contains(t, string(metricsBytes), "athletedash_main_score_cache_hits 1")
}

func (s *IntegrationTestSuite) TestAthleteScores_InvalidInput() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	resp, body := s.do(ctx, http.MethodPost, "/athlete/scores", `{"name":"nobody","bodyweight":-1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "bodyweight: must be > 0")

	resp, body = s.do(ctx, http.MethodPost, "/athlete/scores", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid request body"}`, body)
}

func (s *IntegrationTestSuite) TestAthleteRankAndCalibration() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	var athlete scoring.Input
	require.NoError(t, json.Unmarshal([]byte(athleteJSON), &athlete))
	beginner := athlete
	beginner.Name = "beginner"
	beginner.Technique = 30
	beginner.Strength = scoring.StrengthMetrics{Bench: 65, Squat: 95, Deadlift: 135}

	rankBody, err := json.Marshal([]scoring.Input{beginner, athlete})
	require.NoError(t, err)

	resp, body := s.do(ctx, http.MethodPost, "/athlete/scores/rank", string(rankBody))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var reports []scoring.Report
	require.NoError(t, json.Unmarshal([]byte(body), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "mila", reports[0].Name)
	assert.Equal(t, "beginner", reports[1].Name)

	resp, body = s.do(ctx, http.MethodGet, "/athlete/calibration", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var calibration scoring.Calibration
	require.NoError(t, json.Unmarshal([]byte(body), &calibration))
	assert.InDelta(t, 1.0, calibration.Weights.Sum(), 1e-9)
}
