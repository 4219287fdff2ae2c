package server

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"quiz-night/internal/db"
)

// QuestionAnswer is one (icebreaker question, player's answer) pair fed to
// trivia generation.
type QuestionAnswer struct {
	Question string
	Answer   string
}

// TriviaRequest asks for Count trivia questions about one player, each
// answerable from that player's icebreaker answers.
type TriviaRequest struct {
	PlayerName string
	Pairs      []QuestionAnswer
	Count      int
}

// GeneratedTrivia is one trivia question as produced by the text-generation
// collaborator: the correct answer plus three plausible-but-wrong options.
type GeneratedTrivia struct {
	Text        string
	Correct     string
	Distractors [3]string
}

// QuestionGenerator is the text-generation collaborator. Failures never
// reach callers; the engine substitutes deterministic fallback content.
type QuestionGenerator interface {
	IcebreakerQuestions(ctx context.Context, count int) ([]string, error)
	TriviaQuestions(ctx context.Context, req TriviaRequest) ([]GeneratedTrivia, error)
}

var fallbackIcebreakers = []string{
	"What's your go-to comfort food?",
	"What show could you rewatch forever?",
	"What's your ideal way to spend a Sunday?",
}

var fallbackDistractors = []string{
	"They kept that one a secret",
	"Nothing, they dodged the question",
	"They couldn't decide",
	"Whatever everyone else said",
	"They laughed it off",
	"Something completely different",
}

// generateIcebreakers is idempotent: existing questions are returned
// unchanged. A fresh generation moves the session into the asking phase
// pointed at question 1.
func (s *Server) generateIcebreakers(ctx context.Context, code string, playerID uint) (*db.Session, []db.Question, error) {
	session, err := s.loadSession(code)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.requireHost(session, playerID); err != nil {
		return nil, nil, err
	}
	if session.Status == db.StatusWaiting {
		return nil, nil, errConflict("session not started")
	}
	existing, err := s.store.Questions(session.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load questions")
	}
	if len(existing) > 0 {
		return session, existing, nil
	}

	count := s.cfg.IcebreakerQuestions
	texts, err := s.generator.IcebreakerQuestions(ctx, count)
	if err != nil || len(texts) != count {
		if err != nil {
			log.Printf("icebreaker generation failed join_code=%s error=%v", session.Code, err)
		}
		texts = icebreakerFallbackSet(count)
	}

	questions := make([]db.Question, 0, count)
	for i, text := range texts {
		questions = append(questions, db.Question{
			SessionID: session.ID,
			Number:    i + 1,
			Text:      text,
		})
	}
	if err := s.store.CreateQuestions(questions); err != nil {
		return nil, nil, errInternal("failed to save questions")
	}

	session.Phase = db.PhaseAsking
	session.CurrentQuestionNumber = 1
	firstID := questions[0].ID
	session.CurrentQuestionID = &firstID
	if err := s.store.SaveSession(session); err != nil {
		return nil, nil, errInternal("failed to advance session")
	}
	s.recordEvent(session, &playerID, "questions_generated", eventPayload{Phase: session.Phase, Count: count})
	log.Printf("icebreakers generated join_code=%s count=%d", session.Code, count)
	return session, questions, nil
}

func icebreakerFallbackSet(count int) []string {
	texts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		texts = append(texts, fallbackIcebreakers[i%len(fallbackIcebreakers)])
	}
	return texts
}

// triviaDraft is a quiz question before label assignment and persistence.
type triviaDraft struct {
	text         string
	options      [4]string
	correctIndex int
}

// generateQuiz is idempotent like icebreaker generation. It builds per-player
// question lists and interleaves them round-robin so consecutive questions
// concern different players, then opens the first quiz question with a fresh
// answer deadline.
func (s *Server) generateQuiz(ctx context.Context, code string, playerID uint) (*db.Session, []db.QuizQuestion, error) {
	session, err := s.loadSession(code)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.requireHost(session, playerID); err != nil {
		return nil, nil, err
	}
	if session.Status == db.StatusWaiting {
		return nil, nil, errConflict("session not started")
	}
	existing, err := s.store.QuizQuestions(session.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load quiz questions")
	}
	if len(existing) > 0 {
		return session, existing, nil
	}
	// A fresh generation only happens from the quiz interstitial; earlier
	// phases would let the host skip the rest of the icebreaker round.
	if session.Phase != db.PhaseQuiz {
		return nil, nil, errConflict("icebreaker round is not finished")
	}

	players, err := s.store.Players(session.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load players")
	}
	roster := make([]db.Player, 0, len(players))
	for _, player := range players {
		if !player.IsProjector {
			roster = append(roster, player)
		}
	}
	if len(roster) == 0 {
		return nil, nil, errPreconditionFailed("no players to build a quiz for")
	}
	questions, err := s.store.Questions(session.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load questions")
	}
	if len(questions) == 0 {
		return nil, nil, errPreconditionFailed("icebreaker questions have not been generated")
	}
	answers, err := s.store.AnswersForSession(session.ID)
	if err != nil {
		return nil, nil, errInternal("failed to load answers")
	}
	if len(answers) == 0 {
		return nil, nil, errPreconditionFailed("no icebreaker answers submitted")
	}

	questionText := make(map[uint]string, len(questions))
	for _, question := range questions {
		questionText[question.ID] = question.Text
	}
	pairsByPlayer := make(map[uint][]QuestionAnswer, len(roster))
	for _, question := range questions {
		for _, answer := range answers {
			if answer.QuestionID != question.ID {
				continue
			}
			pairsByPlayer[answer.PlayerID] = append(pairsByPlayer[answer.PlayerID], QuestionAnswer{
				Question: questionText[answer.QuestionID],
				Answer:   answer.Text,
			})
		}
	}

	// Players who answered nothing are skipped entirely.
	perPlayer := make([][]triviaDraft, 0, len(roster))
	aboutIDs := make([]uint, 0, len(roster))
	for _, player := range roster {
		pairs := pairsByPlayer[player.ID]
		if len(pairs) == 0 {
			continue
		}
		perPlayer = append(perPlayer, s.triviaForPlayer(ctx, player, pairs))
		aboutIDs = append(aboutIDs, player.ID)
	}
	if len(perPlayer) == 0 {
		return nil, nil, errPreconditionFailed("no icebreaker answers submitted")
	}

	ordered, owners := interleaveByRound(perPlayer, aboutIDs)
	rows := make([]db.QuizQuestion, 0, len(ordered))
	for i, draft := range ordered {
		rows = append(rows, db.QuizQuestion{
			SessionID:     session.ID,
			AboutPlayerID: owners[i],
			QuestionOrder: i + 1,
			Text:          draft.text,
			OptionA:       draft.options[0],
			OptionB:       draft.options[1],
			OptionC:       draft.options[2],
			OptionD:       draft.options[3],
			CorrectLabel:  optionLabels[draft.correctIndex],
		})
	}
	if err := s.store.CreateQuizQuestions(rows); err != nil {
		return nil, nil, errInternal("failed to save quiz questions")
	}

	now := timeNowUTC()
	deadline := now.Add(time.Duration(s.cfg.QuizAnswerSeconds) * time.Second)
	session.Phase = db.PhaseQuizQuestion
	session.CurrentQuizNumber = 1
	firstID := rows[0].ID
	session.CurrentQuizQuestionID = &firstID
	session.QuizStartedAt = &now
	session.QuestionDeadline = &deadline
	if err := s.store.SaveSession(session); err != nil {
		return nil, nil, errInternal("failed to advance session")
	}
	s.recordEvent(session, &playerID, "quiz_generated", eventPayload{Phase: session.Phase, Count: len(rows)})
	log.Printf("quiz generated join_code=%s questions=%d players=%d", session.Code, len(rows), len(perPlayer))
	return session, rows, nil
}

// triviaForPlayer returns exactly QuizQuestionsPerPlayer drafts: generator
// output first, deterministic templated questions for any missing slot.
func (s *Server) triviaForPlayer(ctx context.Context, player db.Player, pairs []QuestionAnswer) []triviaDraft {
	count := s.cfg.QuizQuestionsPerPlayer
	drafts := make([]triviaDraft, 0, count)
	generated, err := s.generator.TriviaQuestions(ctx, TriviaRequest{
		PlayerName: player.Name,
		Pairs:      pairs,
		Count:      count,
	})
	if err != nil {
		log.Printf("trivia generation failed player=%s error=%v", player.Name, err)
	}
	for i := 0; i < len(generated) && len(drafts) < count; i++ {
		drafts = append(drafts, draftFromGenerated(generated[i]))
	}
	for slot := len(drafts); slot < count; slot++ {
		drafts = append(drafts, fallbackTrivia(player.Name, pairs, slot))
	}
	return drafts
}

func draftFromGenerated(generated GeneratedTrivia) triviaDraft {
	draft := triviaDraft{
		text:         generated.Text,
		correctIndex: rand.Intn(4),
	}
	draft.options[draft.correctIndex] = generated.Correct
	wrong := 0
	for i := range draft.options {
		if i == draft.correctIndex {
			continue
		}
		draft.options[i] = generated.Distractors[wrong]
		wrong++
	}
	return draft
}

// fallbackTrivia builds a templated question from one of the player's stored
// answers. Deterministic: the same inputs always produce the same question
// and label placement.
func fallbackTrivia(playerName string, pairs []QuestionAnswer, slot int) triviaDraft {
	pair := pairs[slot%len(pairs)]
	draft := triviaDraft{
		text:         "When asked \"" + pair.Question + "\", what did " + playerName + " say?",
		correctIndex: slot % 4,
	}
	draft.options[draft.correctIndex] = pair.Answer
	filled := 0
	for i := 0; filled < 3 && i < len(fallbackDistractors); i++ {
		distractor := fallbackDistractors[(slot+i)%len(fallbackDistractors)]
		if strings.EqualFold(distractor, pair.Answer) {
			continue
		}
		for j := range draft.options {
			if j != draft.correctIndex && draft.options[j] == "" {
				draft.options[j] = distractor
				filled++
				break
			}
		}
	}
	return draft
}

// interleaveByRound merges per-player question lists by round index: round 0
// of every player, then round 1, and so on. This spreads "about" targets
// across successive questions instead of clustering them by player.
func interleaveByRound(perPlayer [][]triviaDraft, aboutIDs []uint) ([]triviaDraft, []uint) {
	maxLen := 0
	for _, drafts := range perPlayer {
		if len(drafts) > maxLen {
			maxLen = len(drafts)
		}
	}
	ordered := make([]triviaDraft, 0)
	owners := make([]uint, 0)
	for round := 0; round < maxLen; round++ {
		for i, drafts := range perPlayer {
			if round < len(drafts) {
				ordered = append(ordered, drafts[round])
				owners = append(owners, aboutIDs[i])
			}
		}
	}
	return ordered, owners
}
