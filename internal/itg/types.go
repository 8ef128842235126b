package itg

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Number is a lenient numeric field: anything other than a JSON number
// decodes as 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// Flag is a lenient boolean field. Numbers are true when non-zero and
// strings when non-empty, everything else that is not a JSON bool is false.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		*f = false
		return nil
	}
	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case float64:
		*f = t != 0
	case string:
		*f = t != ""
	default:
		*f = false
	}
	return nil
}

// Status is the game client's state snapshot. Fields the client omits
// decode to their zero value.
type Status struct {
	Screen              string          `json:"screen"`
	IsPlaying           Flag            `json:"is_playing"`
	ScoreP1             Number          `json:"score_p1"`
	CurrentComboP1      Number          `json:"current_combo_p1"`
	PercentDPP1         Number          `json:"percent_dp_p1"`
	JudgmentsP1         json.RawMessage `json:"judgments_p1"`
	CurrentTitle        string          `json:"current_title"`
	CurrentSongDir      string          `json:"current_song_dir"`
	CurrentDifficultyP1 string          `json:"current_difficulty_p1"`
	PausedKnown         Flag            `json:"paused_known"`
	Paused              Flag            `json:"paused"`
}

// StatusResponse is the GET_STATUS reply. A missing or non-object
// "status" member yields a zero Status.
type StatusResponse struct {
	Status Status `json:"status"`
}

func (r *StatusResponse) UnmarshalJSON(b []byte) error {
	var outer struct {
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(b, &outer); err != nil {
		return err
	}
	r.Status = Status{}
	if body := bytes.TrimSpace(outer.Status); len(body) > 0 && body[0] == '{' {
		return json.Unmarshal(body, &r.Status)
	}
	return nil
}

type Song struct {
	SongDir      string   `json:"song_dir"`
	Title        string   `json:"title"`
	Group        string   `json:"group,omitempty"`
	Difficulties []string `json:"difficulties"`
}

// SongsResponse is the GET_SONGS reply. Entries that are not objects are
// dropped, as is a "songs" member that is not a list.
type SongsResponse struct {
	Songs []Song `json:"songs"`
}

func (r *SongsResponse) UnmarshalJSON(b []byte) error {
	var outer struct {
		Songs json.RawMessage `json:"songs"`
	}
	if err := json.Unmarshal(b, &outer); err != nil {
		return err
	}
	r.Songs = nil
	var entries []json.RawMessage
	if err := json.Unmarshal(outer.Songs, &entries); err != nil {
		return nil
	}
	for _, entry := range entries {
		var song struct {
			SongDir      string            `json:"song_dir"`
			Title        string            `json:"title"`
			Group        string            `json:"group"`
			Difficulties []json.RawMessage `json:"difficulties"`
		}
		if body := bytes.TrimSpace(entry); len(body) == 0 || body[0] != '{' {
			continue
		}
		if err := json.Unmarshal(entry, &song); err != nil {
			continue
		}
		out := Song{SongDir: song.SongDir, Title: song.Title, Group: song.Group}
		for _, d := range song.Difficulties {
			var name string
			if json.Unmarshal(d, &name) == nil {
				out.Difficulties = append(out.Difficulties, name)
			}
		}
		r.Songs = append(r.Songs, out)
	}
	return nil
}

type GroupsResponse struct {
	Groups []string `json:"groups"`
}

// Ack is the reply to HELLO, START_SONG, PAUSE and STOP. Raw keeps the
// full JSON value for reporting.
type Ack struct {
	OK  Flag            `json:"ok"`
	Raw json.RawMessage `json:"-"`
}

const GameplayScreenPrefix = "ScreenGameplay"

// IsGameplayScreen reports whether screen is one of the gameplay screens.
func IsGameplayScreen(screen string) bool {
	return strings.HasPrefix(screen, GameplayScreenPrefix)
}

// InferredPlaying is true when the client says it is playing or is on a
// gameplay screen.
func (s Status) InferredPlaying() bool {
	return bool(s.IsPlaying) || IsGameplayScreen(s.Screen)
}

// JudgmentSum totals the numeric judgment counters of a JSON object.
// Non-numeric values are ignored, fractional counts are truncated, and
// anything other than an object sums to 0.
func JudgmentSum(judgments json.RawMessage) int {
	var counters map[string]any
	if err := json.Unmarshal(judgments, &counters); err != nil {
		return 0
	}
	total := 0
	for _, v := range counters {
		if f, ok := v.(float64); ok {
			total += int(f)
		}
	}
	return total
}
