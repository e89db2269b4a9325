package gateway

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/mdevara/quizshow/internal/cluebank"
	"github.com/mdevara/quizshow/internal/game"
)

const testDoc = `{
  "round_1": [
    {"category": "History", "clues": [
      {"text": "q1", "value": 200, "answer": "a1", "type": "text"},
      {"text": "q2", "value": 400, "answer": "a2", "type": "text"},
      {"text": "q3", "value": 600, "answer": "a3", "type": "text"}
    ]},
    {"category": "Music", "clues": [
      {"text": "q4", "value": 200, "answer": "a4", "type": "text"},
      {"text": "q5", "value": 400, "answer": "a5", "type": "text"},
      {"text": "q6", "value": 600, "answer": "a6", "type": "text"}
    ]}
  ],
  "round_2": [
    {"category": "Science", "clues": [
      {"text": "q7", "value": 400, "answer": "a7", "type": "text"},
      {"text": "q8", "value": 800, "answer": "a8", "type": "text"},
      {"text": "q9", "value": 1200, "answer": "a9", "type": "text"}
    ]},
    {"category": "Film", "clues": [
      {"text": "q10", "value": 400, "answer": "a10", "type": "text"},
      {"text": "q11", "value": 800, "answer": "a11", "type": "text"},
      {"text": "q12", "value": 1200, "answer": "a12", "type": "text"}
    ]}
  ],
  "final_jeopardy": {"category": "Geography", "text": "fq", "answer": "fa"}
}`

func newTestHub(t *testing.T) (*Hub, *game.Controller) {
	t.Helper()
	bank, err := cluebank.Parse([]byte(testDoc))
	if err != nil {
		t.Fatalf("parse test bank: %v", err)
	}
	hub := NewHub(DefaultConnectionConfig())
	controller := game.New(bank, hub, clockwork.NewFakeClock(), game.DefaultTimings())
	hub.AttachGame(controller)
	return hub, controller
}

func newTestConnection(sid string) *Connection {
	return &Connection{SID: sid, Send: make(chan []byte, 16)}
}

// drain empties the connection's send buffer and returns the decoded
// messages.
func drain(t *testing.T, conn *Connection) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		select {
		case data := <-conn.Send:
			var m map[string]any
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("reply is not JSON: %v", err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty", "", 0},
		{"number", "42", 42},
		{"negative number", "-3", -3},
		{"numeric string", `"42"`, 42},
		{"padded numeric string", `" 7 "`, 7},
		{"non-numeric string", `"abc"`, 0},
		{"float", "3.5", 0},
		{"bool", "true", 0},
		{"null", "null", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := coerceInt(json.RawMessage(tc.raw)); got != tc.want {
				t.Fatalf("coerceInt(%q) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestJoinCommandBindsConnection(t *testing.T) {
	hub, controller := newTestHub(t)
	conn := newTestConnection("sid-1")

	hub.handleCommand(conn, []byte(`{"action":"join","data":{"name":"alice"}}`))

	pid := conn.PID()
	if pid == "" {
		t.Fatalf("join should bind a pid to the connection")
	}
	if _, ok := controller.Player(pid); !ok {
		t.Fatalf("joined participant missing from the game")
	}

	replies := drain(t, conn)
	if len(replies) != 1 || replies[0]["type"] != "Joined" {
		t.Fatalf("expected a single Joined reply, got %v", replies)
	}
	if replies[0]["pid"] != pid || replies[0]["sid"] != "sid-1" {
		t.Fatalf("Joined reply carries wrong identity: %v", replies[0])
	}
}

func TestRejoinWithPIDKeepsIdentity(t *testing.T) {
	hub, controller := newTestHub(t)
	first := newTestConnection("sid-1")
	hub.handleCommand(first, []byte(`{"action":"join","data":{"name":"alice"}}`))
	pid := first.PID()
	controller.SetAbsoluteScore(pid, 800)
	controller.Disconnect("sid-1")

	second := newTestConnection("sid-2")
	payload := fmt.Sprintf(`{"action":"join","data":{"pid":%q,"name":"alice"}}`, pid)
	hub.handleCommand(second, []byte(payload))

	if got := second.PID(); got != pid {
		t.Fatalf("rejoin pid = %q, want %q", got, pid)
	}
	p, ok := controller.Player(pid)
	if !ok || p.Score != 800 {
		t.Fatalf("rejoin must keep the score, got %+v", p)
	}
}

func TestRejectedCommandRepliesToIssuerOnly(t *testing.T) {
	hub, _ := newTestHub(t)
	issuer := newTestConnection("sid-1")
	bystander := newTestConnection("sid-2")

	hub.handleCommand(issuer, []byte(`{"action":"close_clue"}`))

	replies := drain(t, issuer)
	if len(replies) != 1 || replies[0]["type"] != "CommandRejected" {
		t.Fatalf("expected a CommandRejected reply, got %v", replies)
	}
	if replies[0]["action"] != "close_clue" || replies[0]["reason"] == "" {
		t.Fatalf("rejection should name the action and reason: %v", replies[0])
	}
	if got := drain(t, bystander); len(got) != 0 {
		t.Fatalf("rejection must not reach other connections: %v", got)
	}
}

func TestMalformedAndUnknownCommandsIgnored(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := newTestConnection("sid-1")

	hub.handleCommand(conn, []byte(`not json`))
	hub.handleCommand(conn, []byte(`{"action":"teleport"}`))
	hub.handleCommand(conn, []byte(`{"action":"select_clue","data":"nope"}`))

	if got := drain(t, conn); len(got) != 0 {
		t.Fatalf("bad input should be dropped silently, got %v", got)
	}
}

func TestClueLifecycleOverCommands(t *testing.T) {
	hub, controller := newTestHub(t)
	conn := newTestConnection("sid-1")
	hub.handleCommand(conn, []byte(`{"action":"join","data":{"name":"alice"}}`))
	pid := conn.PID()
	drain(t, conn)

	coord := pickRegularCoord(t, controller)
	sel := fmt.Sprintf(`{"action":"select_clue","data":{"cat_idx":%d,"clue_idx":%d}}`, coord.Category, coord.Clue)
	hub.handleCommand(conn, []byte(sel))
	if got := controller.Phase(); got != game.PhaseBuzzOpen {
		t.Fatalf("phase = %v, want buzz window open", got)
	}

	hub.handleCommand(conn, []byte(`{"action":"buzz"}`))
	if got := controller.BuzzState().Winner; got != "sid-1" {
		t.Fatalf("winner = %q, want sid-1", got)
	}

	grade := `{"action":"grade","data":{"sid":"sid-1","correct":true,"points":"400"}}`
	hub.handleCommand(conn, []byte(grade))
	p, _ := controller.Player(pid)
	if p.Score != 400 {
		t.Fatalf("score = %d, want 400 (string points coerced)", p.Score)
	}
	if got := drain(t, conn); len(got) != 0 {
		t.Fatalf("happy path must not produce rejections: %v", got)
	}
}

func TestFinalCommandsUseConnectionPID(t *testing.T) {
	hub, controller := newTestHub(t)
	conn := newTestConnection("sid-1")
	hub.handleCommand(conn, []byte(`{"action":"join","data":{"name":"alice"}}`))
	pid := conn.PID()
	controller.SetAbsoluteScore(pid, 1000)
	drain(t, conn)

	hub.handleCommand(conn, []byte(`{"action":"start_final"}`))
	hub.handleCommand(conn, []byte(`{"action":"final_wager","data":{"wager":"600"}}`))
	hub.handleCommand(conn, []byte(`{"action":"reveal_final"}`))
	hub.handleCommand(conn, []byte(`{"action":"final_answer","data":{"answer":"what is go"}}`))
	grade := fmt.Sprintf(`{"action":"grade_final","data":{"pid":%q,"correct":true}}`, pid)
	hub.handleCommand(conn, []byte(grade))

	p, _ := controller.Player(pid)
	if p.Score != 1600 {
		t.Fatalf("score = %d, want 1600", p.Score)
	}
	if got := drain(t, conn); len(got) != 0 {
		t.Fatalf("final flow must not produce rejections: %v", got)
	}
}

func pickRegularCoord(t *testing.T, c *game.Controller) cluebank.Coordinate {
	t.Helper()
	specials := make(map[cluebank.Coordinate]bool)
	for _, s := range c.Specials() {
		specials[s] = true
	}
	for cat := 0; cat < 2; cat++ {
		for clue := 0; clue < 3; clue++ {
			coord := cluebank.Coordinate{Category: cat, Clue: clue}
			if !specials[coord] {
				return coord
			}
		}
	}
	t.Fatalf("no regular coordinate available")
	return cluebank.Coordinate{}
}
