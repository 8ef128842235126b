package telemetry

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const wallTimeLayout = "2006-01-02 15:04:05"

var SampleColumns = []string{
	"wall_time",
	"run_id",
	"cycle",
	"elapsed_seconds",
	"screen",
	"inferred_playing",
	"score_p1",
	"combo_p1",
	"percent_dp_p1",
	"judgment_sum_p1",
	"song_title",
	"song_dir",
	"difficulty_p1",
	"paused_known",
	"paused",
}

var CycleColumns = []string{
	"wall_time",
	"run_id",
	"cycle",
	"passed_all",
	"song_title",
	"song_dir",
	"difficulty",
	"stats_samples",
	"score_delta",
	"combo_delta",
	"percent_delta",
	"judgment_delta",
	"case_results_json",
}

// Sample is one status poll taken during live stats collection.
type Sample struct {
	WallTime        time.Time
	RunID           string
	Cycle           int
	Elapsed         time.Duration
	Screen          string
	InferredPlaying bool
	Score           int
	Combo           int
	Percent         float64
	JudgmentSum     int
	SongTitle       string
	SongDir         string
	Difficulty      string
	PausedKnown     bool
	Paused          bool
}

func (s Sample) Row() []string {
	return []string{
		s.WallTime.Format(wallTimeLayout),
		s.RunID,
		strconv.Itoa(s.Cycle),
		strconv.FormatFloat(s.Elapsed.Seconds(), 'f', 3, 64),
		s.Screen,
		boolDigit(s.InferredPlaying),
		strconv.Itoa(s.Score),
		strconv.Itoa(s.Combo),
		formatFloat(s.Percent),
		strconv.Itoa(s.JudgmentSum),
		s.SongTitle,
		s.SongDir,
		s.Difficulty,
		boolDigit(s.PausedKnown),
		boolDigit(s.Paused),
	}
}

// CaseResult is the outcome of one named step of a cycle.
type CaseResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// CycleSummary is the per-cycle row.
type CycleSummary struct {
	WallTime      time.Time
	RunID         string
	Cycle         int
	PassedAll     bool
	SongTitle     string
	SongDir       string
	Difficulty    string
	StatsSamples  int
	ScoreDelta    int
	ComboDelta    int
	PercentDelta  float64
	JudgmentDelta int
	Cases         []CaseResult
}

func (c CycleSummary) Row() ([]string, error) {
	cases := c.Cases
	if cases == nil {
		cases = []CaseResult{}
	}
	encoded, err := json.Marshal(cases)
	if err != nil {
		return nil, err
	}
	return []string{
		c.WallTime.Format(wallTimeLayout),
		c.RunID,
		strconv.Itoa(c.Cycle),
		boolDigit(c.PassedAll),
		c.SongTitle,
		c.SongDir,
		c.Difficulty,
		strconv.Itoa(c.StatsSamples),
		strconv.Itoa(c.ScoreDelta),
		strconv.Itoa(c.ComboDelta),
		formatFloat(c.PercentDelta),
		strconv.Itoa(c.JudgmentDelta),
		string(encoded),
	}, nil
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// formatFloat always carries a decimal point so spreadsheet imports keep
// the column numeric-float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
