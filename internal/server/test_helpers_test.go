package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-night/internal/config"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// stubGenerator stands in for the OpenAI-backed generator. Setting err
// forces every call to fail, which exercises the fallback content paths.
type stubGenerator struct {
	icebreakers []string
	trivia      []GeneratedTrivia
	err         error
}

func (g *stubGenerator) IcebreakerQuestions(_ context.Context, count int) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.icebreakers, nil
}

func (g *stubGenerator) TriviaQuestions(_ context.Context, req TriviaRequest) ([]GeneratedTrivia, error) {
	if g.err != nil {
		return nil, g.err
	}
	out := make([]GeneratedTrivia, len(g.trivia))
	copy(out, g.trivia)
	for i := range out {
		out[i].Text = fmt.Sprintf("%s (%s)", out[i].Text, req.PlayerName)
	}
	return out, nil
}

func stubTrivia(n int) []GeneratedTrivia {
	out := make([]GeneratedTrivia, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, GeneratedTrivia{
			Text:        fmt.Sprintf("What did they say, take %d?", i+1),
			Correct:     fmt.Sprintf("the real answer %d", i+1),
			Distractors: [3]string{"a red herring", "another red herring", "a third red herring"},
		})
	}
	return out
}

// newQuizServer builds a server on the in-memory store with a stubbed
// generator, so tests run without a database or network.
func newQuizServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(nil, config.Default())
	srv.generator = &stubGenerator{
		icebreakers: []string{
			"What's your favorite breakfast?",
			"Which movie do you quote the most?",
			"Where would you go on a free weekend?",
		},
		trivia: stubTrivia(2),
	}
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}
