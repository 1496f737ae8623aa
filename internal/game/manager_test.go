package game

import (
	"strings"
	"testing"
)

func testBoard() []*Category {
	return []*Category{
		{
			ID:   "cat-science",
			Name: "Science",
			Questions: []*Question{
				{ID: "q1", Prompt: "P1", Answer: "A1", Points: 100},
				{ID: "q2", Prompt: "P2", Answer: "A2", Points: 200},
				{ID: "q3", Prompt: "P3", Answer: "A3", Points: 300},
				{ID: "q4", Prompt: "P4", Answer: "A4", Points: 400},
				{ID: "q5", Prompt: "P5", Answer: "A5", Points: 500},
			},
		},
	}
}

func newTestGame(t *testing.T) (*Manager, *Game) {
	t.Helper()
	m := NewManager(nil)
	g, err := m.CreateGame("Test Game", "", nil)
	if err != nil {
		t.Fatalf("should be able to create game: %v", err)
	}
	g, err = m.UpdateGame(g.ID, GameUpdate{Categories: testBoard()})
	if err != nil {
		t.Fatalf("should be able to set board: %v", err)
	}
	return m, g
}

func question(t *testing.T, g *Game, id string) *Question {
	t.Helper()
	for _, cat := range g.Categories {
		for _, q := range cat.Questions {
			if q.ID == id {
				return q
			}
		}
	}
	t.Fatalf("question %s not found", id)
	return nil
}

func TestCreateGame(t *testing.T) {
	m := NewManager(nil)
	g, err := m.CreateGame("Pub Night", "", nil)
	if err != nil {
		t.Fatalf("should be able to create game: %v", err)
	}
	if g.ID == "" {
		t.Fatal("game id should not be empty")
	}
	if len(g.AccessCode) != 6 {
		t.Fatalf("expected 6-char access code, got %q", g.AccessCode)
	}
	if g.Phase != PhaseLobby {
		t.Fatalf("expected phase %s, got %s", PhaseLobby, g.Phase)
	}
	if g.CurrentQuestion != nil {
		t.Fatal("new game should have no current question")
	}
	if !g.Settings.AllowNegative || g.Settings.BuzzerLockoutMs != 250 {
		t.Fatalf("expected default settings, got %+v", g.Settings)
	}

	got, err := m.Game(g.ID)
	if err != nil {
		t.Fatalf("should be able to retrieve created game: %v", err)
	}
	if got.AccessCode != g.AccessCode {
		t.Fatalf("expected access code %s, got %s", g.AccessCode, got.AccessCode)
	}
}

func TestGameByCode(t *testing.T) {
	m, g := newTestGame(t)

	got, err := m.GameByCode(strings.ToLower(g.AccessCode))
	if err != nil {
		t.Fatalf("lookup should be case-insensitive: %v", err)
	}
	if got.ID != g.ID {
		t.Fatalf("expected game %s, got %s", g.ID, got.ID)
	}

	if _, err := m.GameByCode("NOPE99"); err != ErrGameNotFound {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}

	if _, err := m.EndGame(g.ID); err != nil {
		t.Fatalf("should be able to end game: %v", err)
	}
	if _, err := m.GameByCode(g.AccessCode); err != ErrGameEnded {
		t.Fatalf("expected ErrGameEnded for finished game, got %v", err)
	}
}

func TestJoinAndReconnect(t *testing.T) {
	m, g := newTestGame(t)

	aliceID, snap, err := m.Join(g.ID, "Alice")
	if err != nil {
		t.Fatalf("should be able to join: %v", err)
	}
	if aliceID == "" {
		t.Fatal("player id should not be empty")
	}
	if len(snap.Players) != 1 || !snap.Players[0].Connected {
		t.Fatalf("expected one connected player, got %+v", snap.Players)
	}

	// Score something, then disconnect and rejoin under the same name.
	if _, err := m.SelectQuestion(g.ID, "cat-science", "q1"); err != nil {
		t.Fatalf("should be able to select question: %v", err)
	}
	if _, err := m.JudgeCorrect(g.ID, aliceID); err != nil {
		t.Fatalf("should be able to judge correct: %v", err)
	}
	if _, err := m.Disconnect(g.ID, aliceID); err != nil {
		t.Fatalf("should be able to disconnect: %v", err)
	}

	againID, snap, err := m.Join(g.ID, "Alice")
	if err != nil {
		t.Fatalf("should be able to rejoin: %v", err)
	}
	if againID != aliceID {
		t.Fatal("same name should reconnect to the same player")
	}
	if len(snap.Players) != 1 {
		t.Fatalf("reconnect should not add a player, got %d", len(snap.Players))
	}
	if snap.Players[0].Score != 100 {
		t.Fatalf("score should survive reconnect, got %d", snap.Players[0].Score)
	}
	if !snap.Players[0].Connected {
		t.Fatal("reconnected player should be marked connected")
	}

	// A different name is always a new player with a zero score.
	bobID, snap, err := m.Join(g.ID, "Bob")
	if err != nil {
		t.Fatalf("should be able to join: %v", err)
	}
	if bobID == aliceID {
		t.Fatal("new name should get a new player id")
	}
	if len(snap.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(snap.Players))
	}
}

func TestJoinUnknownGame(t *testing.T) {
	m := NewManager(nil)
	if _, _, err := m.Join("missing", "Alice"); err != ErrGameNotFound {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestSelectQuestion(t *testing.T) {
	m, g := newTestGame(t)

	snap, err := m.SelectQuestion(g.ID, "cat-science", "q3")
	if err != nil {
		t.Fatalf("should be able to select question: %v", err)
	}
	if snap.Phase != PhaseQuestion {
		t.Fatalf("expected phase %s, got %s", PhaseQuestion, snap.Phase)
	}
	if snap.CurrentQuestion == nil || snap.CurrentQuestion.ID != "q3" {
		t.Fatalf("expected q3 live, got %+v", snap.CurrentQuestion)
	}
	if snap.CurrentCategory == nil || snap.CurrentCategory.ID != "cat-science" {
		t.Fatalf("expected cat-science live, got %+v", snap.CurrentCategory)
	}
	if snap.BuzzerActive {
		t.Fatal("buzzer should start inactive")
	}
	if len(snap.BuzzerQueue) != 0 {
		t.Fatal("queue should be empty after selection")
	}

	if _, err := m.SelectQuestion(g.ID, "cat-science", "missing"); err != ErrQuestionNotFound {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestSelectAnsweredQuestionIsNoop(t *testing.T) {
	m, g := newTestGame(t)
	id, _, _ := m.Join(g.ID, "Alice")

	m.SelectQuestion(g.ID, "cat-science", "q1")
	m.JudgeCorrect(g.ID, id)

	if _, err := m.SelectQuestion(g.ID, "cat-science", "q1"); err != ErrAnswered {
		t.Fatalf("expected ErrAnswered, got %v", err)
	}
	snap, _ := m.Game(g.ID)
	if snap.Phase != PhasePlaying || snap.CurrentQuestion != nil {
		t.Fatal("rejected selection must leave state unchanged")
	}
}

func TestJudgeCorrect(t *testing.T) {
	m, g := newTestGame(t)
	id, _, _ := m.Join(g.ID, "Alice")
	m.SelectQuestion(g.ID, "cat-science", "q5")

	snap, err := m.JudgeCorrect(g.ID, id)
	if err != nil {
		t.Fatalf("should be able to judge correct: %v", err)
	}
	if snap.Players[0].Score != 500 {
		t.Fatalf("expected score 500, got %d", snap.Players[0].Score)
	}
	if !question(t, snap, "q5").Answered {
		t.Fatal("q5 should be answered")
	}
	for _, id := range []string{"q1", "q2", "q3", "q4"} {
		if question(t, snap, id).Answered {
			t.Fatalf("%s should not be answered", id)
		}
	}
	if snap.Phase != PhasePlaying {
		t.Fatalf("expected phase %s, got %s", PhasePlaying, snap.Phase)
	}
	if snap.CurrentQuestion != nil || snap.CurrentCategory != nil {
		t.Fatal("current question should be cleared")
	}
	if snap.BuzzerActive || len(snap.BuzzerQueue) != 0 {
		t.Fatal("buzzer should be off with an empty queue")
	}
}

func TestJudgeCorrectRequiresQuestionPhase(t *testing.T) {
	m, g := newTestGame(t)
	id, _, _ := m.Join(g.ID, "Alice")
	if _, err := m.JudgeCorrect(g.ID, id); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
}

func TestJudgeWrong(t *testing.T) {
	m, g := newTestGame(t)
	id, _, _ := m.Join(g.ID, "Alice")
	m.SelectQuestion(g.ID, "cat-science", "q2")
	m.ActivateBuzzer(g.ID)
	m.Buzz(g.ID, id, 10)

	snap, err := m.JudgeWrong(g.ID, id)
	if err != nil {
		t.Fatalf("should be able to judge wrong: %v", err)
	}
	if snap.Players[0].Score != -200 {
		t.Fatalf("expected score -200 with allowNegative, got %d", snap.Players[0].Score)
	}
	if question(t, snap, "q2").Answered {
		t.Fatal("question must stay unanswered after a wrong answer")
	}
	if snap.Phase != PhaseQuestion {
		t.Fatalf("phase must stay %s so the next player can be judged, got %s", PhaseQuestion, snap.Phase)
	}
	if len(snap.BuzzerQueue) != 0 {
		t.Fatal("wrongly answering player should leave the queue")
	}
}

func TestJudgeWrongWithoutNegativeScoring(t *testing.T) {
	m := NewManager(nil)
	s := DefaultSettings()
	s.AllowNegative = false
	g, err := m.CreateGame("No Negatives", "", &s)
	if err != nil {
		t.Fatalf("should be able to create game: %v", err)
	}
	if _, err := m.UpdateGame(g.ID, GameUpdate{Categories: testBoard()}); err != nil {
		t.Fatalf("should be able to set board: %v", err)
	}
	id, _, _ := m.Join(g.ID, "Alice")
	m.SelectQuestion(g.ID, "cat-science", "q2")

	snap, err := m.JudgeWrong(g.ID, id)
	if err != nil {
		t.Fatalf("should be able to judge wrong: %v", err)
	}
	if snap.Players[0].Score != 0 {
		t.Fatalf("expected unchanged score, got %d", snap.Players[0].Score)
	}
}

func TestSkipQuestion(t *testing.T) {
	m, g := newTestGame(t)
	m.Join(g.ID, "Alice")
	m.SelectQuestion(g.ID, "cat-science", "q4")

	snap, err := m.SkipQuestion(g.ID)
	if err != nil {
		t.Fatalf("should be able to skip: %v", err)
	}
	if !question(t, snap, "q4").Answered {
		t.Fatal("skipped question counts as resolved")
	}
	if snap.Players[0].Score != 0 {
		t.Fatalf("skip should not award points, got %d", snap.Players[0].Score)
	}
	if snap.Phase != PhasePlaying || snap.CurrentQuestion != nil {
		t.Fatal("skip should return the game to the board")
	}
}

func TestEndGame(t *testing.T) {
	m, g := newTestGame(t)
	m.SelectQuestion(g.ID, "cat-science", "q1")

	snap, err := m.EndGame(g.ID)
	if err != nil {
		t.Fatalf("should be able to end game: %v", err)
	}
	if snap.Phase != PhaseFinished {
		t.Fatalf("expected phase %s, got %s", PhaseFinished, snap.Phase)
	}
	if snap.CurrentQuestion != nil {
		t.Fatal("ending a game should clear the live question")
	}
}

func TestResetGame(t *testing.T) {
	m, g := newTestGame(t)
	id, _, _ := m.Join(g.ID, "Alice")
	m.SelectQuestion(g.ID, "cat-science", "q1")
	m.JudgeCorrect(g.ID, id)

	snap, err := m.ResetGame(g.ID)
	if err != nil {
		t.Fatalf("should be able to reset: %v", err)
	}
	if snap.Phase != PhaseLobby {
		t.Fatalf("expected phase %s, got %s", PhaseLobby, snap.Phase)
	}
	if question(t, snap, "q1").Answered {
		t.Fatal("reset must clear answered flags")
	}
	if snap.Players[0].Score != 0 {
		t.Fatalf("reset must zero scores, got %d", snap.Players[0].Score)
	}
}

func TestDeleteGame(t *testing.T) {
	m, g := newTestGame(t)
	if err := m.DeleteGame(g.ID); err != nil {
		t.Fatalf("should be able to delete: %v", err)
	}
	if _, err := m.Game(g.ID); err != ErrGameNotFound {
		t.Fatalf("expected ErrGameNotFound after delete, got %v", err)
	}
	if _, err := m.GameByCode(g.AccessCode); err != ErrGameNotFound {
		t.Fatalf("access code should be freed, got %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	m, g := newTestGame(t)
	snap, _ := m.Game(g.ID)
	snap.Name = "mutated"
	snap.Categories[0].Questions[0].Answered = true

	fresh, _ := m.Game(g.ID)
	if fresh.Name == "mutated" {
		t.Fatal("mutating a snapshot must not touch live state")
	}
	if fresh.Categories[0].Questions[0].Answered {
		t.Fatal("mutating a snapshot's board must not touch live state")
	}
}

// The full moderator walk from the board to a judged answer.
func TestGameScenario(t *testing.T) {
	m, g := newTestGame(t)
	aID, _, _ := m.Join(g.ID, "A")
	bID, _, _ := m.Join(g.ID, "B")

	snap, err := m.SelectQuestion(g.ID, "cat-science", "q5")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if snap.Phase != PhaseQuestion || len(snap.BuzzerQueue) != 0 {
		t.Fatal("expected question phase with an empty queue")
	}

	if _, err := m.ActivateBuzzer(g.ID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if _, err := m.Buzz(g.ID, aID, 100); err != nil {
		t.Fatalf("buzz failed: %v", err)
	}
	snap, err = m.Buzz(g.ID, bID, 50)
	if err != nil {
		t.Fatalf("buzz failed: %v", err)
	}
	if snap.BuzzerQueue[0].PlayerID != bID || snap.BuzzerQueue[0].Rank != 1 {
		t.Fatalf("expected B first, got %+v", snap.BuzzerQueue)
	}
	if snap.BuzzerQueue[1].PlayerID != aID || snap.BuzzerQueue[1].Rank != 2 {
		t.Fatalf("expected A second, got %+v", snap.BuzzerQueue)
	}

	snap, err = m.JudgeCorrect(g.ID, bID)
	if err != nil {
		t.Fatalf("judge failed: %v", err)
	}
	if snap.player(bID).Score != 500 {
		t.Fatalf("expected B at 500, got %d", snap.player(bID).Score)
	}
	if !question(t, snap, "q5").Answered {
		t.Fatal("q5 should be answered")
	}
	if snap.Phase != PhasePlaying || len(snap.BuzzerQueue) != 0 {
		t.Fatal("judging should clear the question and queue")
	}
}
