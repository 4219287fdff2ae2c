package server

import (
	"sort"
	"strings"
	"sync"
	"time"

	"quiz-night/internal/db"
)

// memStore keeps everything in maps guarded by one mutex. It backs the
// server when no DATABASE_URL is configured and all package tests. It
// enforces the same key constraints as the Postgres schema.
type memStore struct {
	mu            sync.Mutex
	nextID        uint
	sessions      map[uint]*db.Session
	players       map[uint]*db.Player
	questions     map[uint]*db.Question
	answers       map[uint]*db.Answer
	quizQuestions map[uint]*db.QuizQuestion
	quizAnswers   map[uint]*db.QuizAnswer
	events        []db.Event
}

func newMemStore() *memStore {
	return &memStore{
		nextID:        1,
		sessions:      make(map[uint]*db.Session),
		players:       make(map[uint]*db.Player),
		questions:     make(map[uint]*db.Question),
		answers:       make(map[uint]*db.Answer),
		quizQuestions: make(map[uint]*db.QuizQuestion),
		quizAnswers:   make(map[uint]*db.QuizAnswer),
	}
}

func (s *memStore) allocID() uint {
	id := s.nextID
	s.nextID++
	return id
}

func (s *memStore) CreateSession(session *db.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.Code == session.Code {
			return ErrDuplicate
		}
	}
	session.ID = s.allocID()
	session.CreatedAt = timeNowUTC()
	session.UpdatedAt = session.CreatedAt
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *memStore) SessionByCode(code string) (*db.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.Code == code {
			copied := *session
			return &copied, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *memStore) SaveSession(session *db.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return ErrRecordNotFound
	}
	session.UpdatedAt = timeNowUTC()
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *memStore) CreatePlayer(player *db.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players {
		if existing.SessionID == player.SessionID && strings.EqualFold(existing.Name, player.Name) {
			return ErrDuplicate
		}
	}
	player.ID = s.allocID()
	player.CreatedAt = timeNowUTC()
	player.UpdatedAt = player.CreatedAt
	copied := *player
	s.players[player.ID] = &copied
	return nil
}

func (s *memStore) PlayerByID(id uint) (*db.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *player
	return &copied, nil
}

func (s *memStore) Players(sessionID uint) ([]db.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []db.Player
	for _, player := range s.players {
		if player.SessionID == sessionID {
			records = append(records, *player)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].JoinedAt.Equal(records[j].JoinedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].JoinedAt.Before(records[j].JoinedAt)
	})
	return records, nil
}

func (s *memStore) SavePlayerScore(playerID uint, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return ErrRecordNotFound
	}
	player.Score = score
	player.UpdatedAt = timeNowUTC()
	return nil
}

func (s *memStore) CreateQuestions(questions []db.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range questions {
		questions[i].ID = s.allocID()
		questions[i].CreatedAt = timeNowUTC()
		questions[i].UpdatedAt = questions[i].CreatedAt
		copied := questions[i]
		s.questions[questions[i].ID] = &copied
	}
	return nil
}

func (s *memStore) Questions(sessionID uint) ([]db.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []db.Question
	for _, question := range s.questions {
		if question.SessionID == sessionID {
			records = append(records, *question)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Number < records[j].Number
	})
	return records, nil
}

func (s *memStore) QuestionByID(id uint) (*db.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questions[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *question
	return &copied, nil
}

func (s *memStore) UpsertAnswer(answer *db.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.answers {
		if existing.QuestionID == answer.QuestionID && existing.PlayerID == answer.PlayerID {
			existing.Text = answer.Text
			existing.UpdatedAt = timeNowUTC()
			*answer = *existing
			return nil
		}
	}
	answer.ID = s.allocID()
	answer.CreatedAt = timeNowUTC()
	answer.UpdatedAt = answer.CreatedAt
	copied := *answer
	s.answers[answer.ID] = &copied
	return nil
}

func (s *memStore) AnswersForQuestion(questionID uint) ([]db.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []db.Answer
	for _, answer := range s.answers {
		if answer.QuestionID == questionID {
			records = append(records, *answer)
		}
	}
	sortByID(records, func(a db.Answer) uint { return a.ID })
	return records, nil
}

func (s *memStore) AnswersForSession(sessionID uint) ([]db.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []db.Answer
	for _, answer := range s.answers {
		question, ok := s.questions[answer.QuestionID]
		if ok && question.SessionID == sessionID {
			records = append(records, *answer)
		}
	}
	sortByID(records, func(a db.Answer) uint { return a.ID })
	return records, nil
}

func (s *memStore) CreateQuizQuestions(questions []db.QuizQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range questions {
		questions[i].ID = s.allocID()
		questions[i].CreatedAt = timeNowUTC()
		questions[i].UpdatedAt = questions[i].CreatedAt
		copied := questions[i]
		s.quizQuestions[questions[i].ID] = &copied
	}
	return nil
}

func (s *memStore) QuizQuestions(sessionID uint) ([]db.QuizQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []db.QuizQuestion
	for _, question := range s.quizQuestions {
		if question.SessionID == sessionID {
			records = append(records, *question)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].QuestionOrder < records[j].QuestionOrder
	})
	return records, nil
}

func (s *memStore) QuizQuestionByID(id uint) (*db.QuizQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.quizQuestions[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *question
	return &copied, nil
}

func (s *memStore) CreateQuizAnswer(answer *db.QuizAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.quizAnswers {
		if existing.QuizQuestionID == answer.QuizQuestionID && existing.PlayerID == answer.PlayerID {
			return ErrDuplicate
		}
	}
	answer.ID = s.allocID()
	answer.CreatedAt = timeNowUTC()
	answer.UpdatedAt = answer.CreatedAt
	copied := *answer
	s.quizAnswers[answer.ID] = &copied
	return nil
}

func (s *memStore) QuizAnswerFor(quizQuestionID, playerID uint) (*db.QuizAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, answer := range s.quizAnswers {
		if answer.QuizQuestionID == quizQuestionID && answer.PlayerID == playerID {
			copied := *answer
			return &copied, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *memStore) QuizAnswersForQuestion(quizQuestionID uint) ([]db.QuizAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []db.QuizAnswer
	for _, answer := range s.quizAnswers {
		if answer.QuizQuestionID == quizQuestionID {
			records = append(records, *answer)
		}
	}
	sortByID(records, func(a db.QuizAnswer) uint { return a.ID })
	return records, nil
}

func (s *memStore) AppendEvent(event *db.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.allocID()
	event.CreatedAt = timeNowUTC()
	s.events = append(s.events, *event)
	return nil
}

func (s *memStore) Events(sessionID uint) ([]db.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []db.Event
	for _, event := range s.events {
		if event.SessionID == sessionID {
			records = append(records, event)
		}
	}
	return records, nil
}

func sortByID[T any](records []T, id func(T) uint) {
	sort.Slice(records, func(i, j int) bool {
		return id(records[i]) < id(records[j])
	})
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
