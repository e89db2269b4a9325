package gateway

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mdevara/quizshow/internal/cluebank"
)

// Command is the inbound envelope every client message carries.
type Command struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type joinPayload struct {
	PID  string `json:"pid,omitempty"`
	Name string `json:"name"`
}

type joinedReply struct {
	Type string `json:"type"`
	PID  string `json:"pid"`
	SID  string `json:"sid"`
}

type selectCluePayload struct {
	CategoryIndex int `json:"cat_idx"`
	ClueIndex     int `json:"clue_idx"`
}

type wagerPayload struct {
	Wager json.RawMessage `json:"wager"`
}

type gradePayload struct {
	SID     string          `json:"sid"`
	Correct bool            `json:"correct"`
	Points  json.RawMessage `json:"points"`
}

type setScorePayload struct {
	PID   string          `json:"pid"`
	Score json.RawMessage `json:"score"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type finalGradePayload struct {
	PID     string `json:"pid"`
	Correct bool   `json:"correct"`
}

type commandReject struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// coerceInt reads a JSON number, or a numeric string, falling back to zero
// for anything malformed. Bad input never rejects the whole command.
func coerceInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}

// handleCommand decodes one inbound message and routes it into the game.
// Rejections go back to the issuing connection only; they are never
// broadcast.
func (h *Hub) handleCommand(conn *Connection, message []byte) {
	var cmd Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		log.Warn().Err(err).Str("sid", conn.SID).Msg("malformed command envelope")
		return
	}

	var err error
	switch cmd.Action {
	case "join":
		var p joinPayload
		if jsonErr := json.Unmarshal(cmd.Data, &p); jsonErr != nil {
			log.Warn().Err(jsonErr).Str("sid", conn.SID).Msg("malformed join payload")
			return
		}
		pid := h.game.Join(p.PID, p.Name, conn.SID)
		conn.setPID(pid)
		h.reply(conn, joinedReply{Type: "Joined", PID: pid, SID: conn.SID})
		return

	case "buzz":
		// A failed buzz is an expected race outcome, not an error.
		h.game.Buzz(conn.SID)
		return

	case "select_clue":
		var p selectCluePayload
		if jsonErr := json.Unmarshal(cmd.Data, &p); jsonErr != nil {
			log.Warn().Err(jsonErr).Str("sid", conn.SID).Msg("malformed select_clue payload")
			return
		}
		err = h.game.SelectClue(cluebank.Coordinate{Category: p.CategoryIndex, Clue: p.ClueIndex})

	case "set_wager":
		var p wagerPayload
		json.Unmarshal(cmd.Data, &p)
		err = h.game.SetWager(coerceInt(p.Wager))

	case "grade":
		var p gradePayload
		if jsonErr := json.Unmarshal(cmd.Data, &p); jsonErr != nil {
			log.Warn().Err(jsonErr).Str("sid", conn.SID).Msg("malformed grade payload")
			return
		}
		err = h.game.Grade(p.SID, p.Correct, coerceInt(p.Points))

	case "set_score":
		var p setScorePayload
		if jsonErr := json.Unmarshal(cmd.Data, &p); jsonErr != nil {
			log.Warn().Err(jsonErr).Str("sid", conn.SID).Msg("malformed set_score payload")
			return
		}
		h.game.SetAbsoluteScore(p.PID, coerceInt(p.Score))

	case "close_clue":
		err = h.game.CloseClue()

	case "clear_buzzers":
		err = h.game.ClearBuzzers()

	case "advance_round":
		err = h.game.AdvanceRound()

	case "start_final":
		err = h.game.StartFinalRound()

	case "final_wager":
		var p wagerPayload
		json.Unmarshal(cmd.Data, &p)
		err = h.game.SubmitFinalWager(conn.PID(), coerceInt(p.Wager))

	case "reveal_final":
		err = h.game.RevealFinalClue()

	case "final_answer":
		var p answerPayload
		if jsonErr := json.Unmarshal(cmd.Data, &p); jsonErr != nil {
			log.Warn().Err(jsonErr).Str("sid", conn.SID).Msg("malformed final_answer payload")
			return
		}
		err = h.game.SubmitFinalAnswer(conn.PID(), p.Answer)

	case "grade_final":
		var p finalGradePayload
		if jsonErr := json.Unmarshal(cmd.Data, &p); jsonErr != nil {
			log.Warn().Err(jsonErr).Str("sid", conn.SID).Msg("malformed grade_final payload")
			return
		}
		err = h.game.GradeFinal(p.PID, p.Correct)

	default:
		log.Warn().Str("action", cmd.Action).Str("sid", conn.SID).Msg("unknown command action")
		return
	}

	if err != nil {
		log.Debug().Err(err).Str("action", cmd.Action).Str("sid", conn.SID).Msg("command rejected")
		h.reply(conn, commandReject{Type: "CommandRejected", Action: cmd.Action, Reason: err.Error()})
	}
}

// reply sends a message to a single connection, never broadcast.
func (h *Hub) reply(conn *Connection, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("sid", conn.SID).Msg("failed to marshal reply")
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Warn().Str("sid", conn.SID).Msg("reply dropped, send buffer full")
	}
}
