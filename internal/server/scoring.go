package server

import (
	"fmt"

	"quiz-night/internal/db"
)

// ScoreDelta is the per-player outcome of one quiz question reveal. The
// delta and reason are part of the engine's contract with the host screen.
type ScoreDelta struct {
	PlayerID uint   `json:"player_id"`
	Name     string `json:"name"`
	Delta    int    `json:"delta"`
	Reason   string `json:"reason"`
	Score    int    `json:"score"`
}

// quizScoreDeltas computes the score changes for one revealed quiz question.
// roster is the session's non-host players; answers are the submissions for
// this question. Rules:
//   - nobody answered: the "about" player loses 1, everyone else unchanged.
//   - about player: +2 when correct, -1 when wrong or silent.
//   - other players: +1 when correct, unchanged otherwise.
//
// One entry is returned per roster player, including zero deltas.
func quizScoreDeltas(question *db.QuizQuestion, answers []db.QuizAnswer, roster []db.Player) []ScoreDelta {
	inRoster := make(map[uint]bool, len(roster))
	for _, player := range roster {
		inRoster[player.ID] = true
	}
	byPlayer := make(map[uint]db.QuizAnswer, len(answers))
	for _, answer := range answers {
		if inRoster[answer.PlayerID] {
			byPlayer[answer.PlayerID] = answer
		}
	}

	aboutName := ""
	for _, player := range roster {
		if player.ID == question.AboutPlayerID {
			aboutName = player.Name
		}
	}

	deltas := make([]ScoreDelta, 0, len(roster))
	for _, player := range roster {
		delta := ScoreDelta{PlayerID: player.ID, Name: player.Name}
		answer, answered := byPlayer[player.ID]
		switch {
		case len(byPlayer) == 0:
			if player.ID == question.AboutPlayerID {
				delta.Delta = -1
				delta.Reason = "nobody answered in time"
			} else {
				delta.Reason = "nobody answered in time"
			}
		case player.ID == question.AboutPlayerID:
			switch {
			case answered && answer.IsCorrect:
				delta.Delta = 2
				delta.Reason = "answered their own question correctly"
			case answered:
				delta.Delta = -1
				delta.Reason = "missed a question about themselves"
			default:
				delta.Delta = -1
				delta.Reason = "did not answer their own question"
			}
		default:
			switch {
			case answered && answer.IsCorrect:
				delta.Delta = 1
				delta.Reason = fmt.Sprintf("guessed right about %s", aboutName)
			case answered:
				delta.Reason = fmt.Sprintf("guessed wrong about %s", aboutName)
			default:
				delta.Reason = "did not answer"
			}
		}
		deltas = append(deltas, delta)
	}
	return deltas
}

// clampScore keeps scores at a floor of zero.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
