package events

// Event payload types shared between the game and gateway packages.

// PlayerInfo is one roster entry as shown to clients.
type PlayerInfo struct {
	PID       string `json:"pid"`
	SID       string `json:"sid,omitempty"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// PlayerListPayload is the payload for PlayerList and ScoreUpdate events.
type PlayerListPayload struct {
	Players []PlayerInfo `json:"players"`
}

// BuzzWinnerPayload announces the connection that won the buzz race.
type BuzzWinnerPayload struct {
	SID  string `json:"sid"`
	PID  string `json:"pid"`
	Name string `json:"name"`
}

// CluePayload is the payload for ClueShown and DailyDouble events.
type CluePayload struct {
	CategoryIndex int    `json:"cat_idx"`
	ClueIndex     int    `json:"clue_idx"`
	Category      string `json:"category"`
	Text          string `json:"text"`
	Value         int    `json:"value"`
	Answer        string `json:"answer"`
	Type          string `json:"type"`
	MediaURL      string `json:"media_url,omitempty"`
	DailyDouble   bool   `json:"is_daily_double"`
	MaxWager      int    `json:"max_wager,omitempty"`
	ControlPID    string `json:"control_pid,omitempty"`
}

// BoardUpdatePayload marks one coordinate as played.
type BoardUpdatePayload struct {
	CategoryIndex int `json:"cat_idx"`
	ClueIndex     int `json:"clue_idx"`
}

// AnswerRevealedPayload carries the canonical answer for the closed clue.
type AnswerRevealedPayload struct {
	Answer string `json:"answer"`
}

// ControlChangePayload announces the participant who selects the next clue.
type ControlChangePayload struct {
	PID  string `json:"pid"`
	Name string `json:"name"`
}

// CategoryInfo is one column of the board snapshot.
type CategoryInfo struct {
	Name   string `json:"name"`
	Values []int  `json:"values"`
}

// RoundAdvancedPayload is the full board snapshot sent when a round starts.
type RoundAdvancedPayload struct {
	Round      int            `json:"round"`
	Categories []CategoryInfo `json:"categories"`
	Board      [][]bool       `json:"board"`
}

// FinalCategoryPayload opens the final round.
type FinalCategoryPayload struct {
	Category string `json:"category"`
}

// FinalCluePayload reveals the final clue text.
type FinalCluePayload struct {
	Text string `json:"text"`
}

// FinalStatusPayload tracks one participant's final-round submissions.
type FinalStatusPayload struct {
	PID       string `json:"pid"`
	Name      string `json:"name"`
	HasWager  bool   `json:"has_wager"`
	HasAnswer bool   `json:"has_answer"`
	Answer    string `json:"answer,omitempty"`
}

// TimerStartPayload tells clients to start a countdown.
type TimerStartPayload struct {
	DurationSec int `json:"duration"`
}
