package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/data"
	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
	"github.com/genocem/Edumond-AI-portal/internal/genai"
)

// memStore is an in-memory Store. Sessions are stored by value so the
// engine cannot mutate them behind the store's back.
type memStore struct {
	mu        sync.Mutex
	sessions  map[string]Session
	responses []Response
	meetings  []Meeting
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]Session)}
}

func (s *memStore) LoadSession(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domerrors.ErrNotFound)
	}
	sess.Messages = slices.Clone(sess.Messages)
	sess.Profile = sess.Profile.clone()
	return &sess, nil
}

func (s *memStore) SaveSession(ctx context.Context, sess *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *sess
	cp.Messages = slices.Clone(sess.Messages)
	cp.Profile = sess.Profile.clone()
	s.sessions[sess.ID] = cp
	return nil
}

func (s *memStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memStore) SaveResponse(_ context.Context, r *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, *r)
	return nil
}

func (s *memStore) ListResponses(_ context.Context, sessionID string) ([]Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Response
	for _, r := range s.responses {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) SaveMeeting(_ context.Context, m *Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings = append(s.meetings, *m)
	return nil
}

func (s *memStore) ListMeetings(_ context.Context, sessionID string) ([]Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Meeting
	for _, m := range s.meetings {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) UpdateMeetingStatus(_ context.Context, sessionID, meetingID string, status MeetingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.meetings {
		if s.meetings[i].ID == meetingID && s.meetings[i].SessionID == sessionID {
			s.meetings[i].Status = status
			return nil
		}
	}
	return domerrors.ErrNotFound
}

// scriptedProducer returns queued replies in order, then err.
type scriptedProducer struct {
	mu       sync.Mutex
	greeting string
	replies  []string
	err      error
	requests []genai.TurnRequest
}

func (p *scriptedProducer) Greet(context.Context) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.greeting, nil
}

func (p *scriptedProducer) Reply(_ context.Context, req genai.TurnRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.replies) == 0 {
		if p.err != nil {
			return "", p.err
		}
		return "", errors.New("no scripted reply")
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r, nil
}

func (p *scriptedProducer) Provider() genai.Provider { return genai.ProviderGemini }
func (p *scriptedProducer) Close() error             { return nil }

type denyLimiter struct{ calls int }

func (l *denyLimiter) Allow(string) bool {
	l.calls++
	return false
}

var testNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, producer genai.Producer, limiter Limiter) (*Engine, *memStore) {
	t.Helper()
	c, err := data.DefaultCatalog()
	require.NoError(t, err)

	store := newMemStore()
	n := 0
	e, err := NewEngine(EngineConfig{
		Catalog:  c,
		Store:    store,
		Producer: producer,
		Limiter:  limiter,
		Now:      func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	require.NoError(t, err)
	return e, store
}

// completeSession drives a session to the recommend phase with the fallback.
func completeSession(t *testing.T, e *Engine) *Session {
	t.Helper()
	ctx := context.Background()
	sess, _, err := e.Start(ctx)
	require.NoError(t, err)
	for _, msg := range []string{"I want to study abroad", "Germany", "B2", "A1"} {
		sess, _, err = e.Chat(ctx, sess.ID, msg)
		require.NoError(t, err)
	}
	require.Equal(t, PhaseRecommend, sess.Phase)
	return sess
}

func TestNewEngine_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(EngineConfig{Store: newMemStore()})
	require.Error(t, err)
	_, err = NewEngine(EngineConfig{Catalog: &catalog.Catalog{}})
	require.Error(t, err)
}

func TestEngine_Start(t *testing.T) {
	t.Parallel()

	t.Run("without producer", func(t *testing.T) {
		t.Parallel()
		e, store := newTestEngine(t, nil, nil)
		sess, turn, err := e.Start(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "id-1", sess.ID)
		assert.Equal(t, PhaseAskGoal, sess.Phase)
		assert.Equal(t, GreetingReply, turn.Reply)
		assert.Equal(t, SourceFallback, turn.Source)
		require.Len(t, sess.Messages, 1)
		assert.Equal(t, RoleAssistant, sess.Messages[0].Role)
		assert.Contains(t, store.sessions, "id-1")
	})

	t.Run("producer greeting", func(t *testing.T) {
		t.Parallel()
		e, _ := newTestEngine(t, &scriptedProducer{greeting: "Welcome! 👋"}, nil)
		_, turn, err := e.Start(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Welcome! 👋", turn.Reply)
		assert.Equal(t, SourceProducer, turn.Source)
	})

	t.Run("failing producer uses canned greeting", func(t *testing.T) {
		t.Parallel()
		e, _ := newTestEngine(t, &scriptedProducer{err: errors.New("boom")}, nil)
		_, turn, err := e.Start(context.Background())
		require.NoError(t, err)
		assert.Equal(t, GreetingReply, turn.Reply)
	})
}

func TestEngine_Chat_Fallback(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil, nil)
	ctx := context.Background()

	sess, _, err := e.Start(ctx)
	require.NoError(t, err)

	steps := []struct {
		msg   string
		phase Phase
	}{
		{"Hello there", PhaseAskGoal},
		{"I'm looking for a job", PhaseAskCountry},
		{"Germany please", PhaseAskEnglish},
		{"B1", PhaseAskNative},
		{"A1", PhaseRecommend},
	}
	var turn Turn
	for _, step := range steps {
		sess, turn, err = e.Chat(ctx, sess.ID, step.msg)
		require.NoError(t, err, step.msg)
		assert.Equal(t, step.phase, turn.Phase, step.msg)
		assert.Equal(t, SourceFallback, turn.Source)
	}

	assert.True(t, sess.RecommendationsShown)
	assert.NotEmpty(t, turn.Recommendations)
	assert.Equal(t, Profile{
		Goal:             catalog.GoalJob,
		Country:          "germany",
		EnglishLevel:     "B1",
		NativeLevel:      "A1",
		SelectedPrograms: []string{},
	}, sess.Profile)
	assert.Len(t, sess.Messages, 1+2*len(steps))
}

func TestEngine_Chat_Producer(t *testing.T) {
	t.Parallel()

	producer := &scriptedProducer{replies: []string{
		"Nice! Which country?\n```json\n{\"phase\":\"ask_country\",\"goal\":\"training\"}\n```",
		"Let's see the programs!\n```json\n{\"phase\":\"recommend\",\"country\":\"spain\"}\n```",
	}}
	e, _ := newTestEngine(t, producer, nil)
	ctx := context.Background()

	sess, _, err := e.Start(ctx)
	require.NoError(t, err)

	sess, turn, err := e.Chat(ctx, sess.ID, "professional training")
	require.NoError(t, err)
	assert.Equal(t, "Nice! Which country?", turn.Reply)
	assert.Equal(t, PhaseAskCountry, turn.Phase)
	assert.Equal(t, SourceProducer, turn.Source)

	// The producer claims recommend but English and native levels are unknown.
	sess, turn, err = e.Chat(ctx, sess.ID, "Spain")
	require.NoError(t, err)
	assert.Equal(t, PhaseAskEnglish, turn.Phase)
	assert.True(t, turn.PhaseDisagrees())
	assert.Nil(t, turn.Recommendations)
	assert.False(t, sess.RecommendationsShown)

	require.Len(t, producer.requests, 2)
	last := producer.requests[1]
	assert.Equal(t, "training", last.Collected.Goal)
	require.NotEmpty(t, last.Messages)
	assert.Equal(t, genai.RoleUser, last.Messages[0].Role)
	assert.Equal(t, "Spain", last.Messages[len(last.Messages)-1].Content)
}

func TestEngine_Chat_ProducerErrorFallsBack(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &scriptedProducer{greeting: "hi", err: errors.New("all providers failed")}, nil)
	ctx := context.Background()

	sess, _, err := e.Start(ctx)
	require.NoError(t, err)
	_, turn, err := e.Chat(ctx, sess.ID, "I want to work in Turkey")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, turn.Source)
	assert.Equal(t, PhaseAskEnglish, turn.Phase)
}

func TestEngine_Chat_RateLimitedFallsBack(t *testing.T) {
	t.Parallel()
	producer := &scriptedProducer{greeting: "hi", replies: []string{"unused"}}
	limiter := &denyLimiter{}
	e, _ := newTestEngine(t, producer, limiter)
	ctx := context.Background()

	sess, _, err := e.Start(ctx)
	require.NoError(t, err)
	_, turn, err := e.Chat(ctx, sess.ID, "study")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, turn.Source)
	assert.Equal(t, 1, limiter.calls)
	assert.Empty(t, producer.requests)
}

func TestEngine_Chat_Validation(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil, nil)
	ctx := context.Background()

	_, _, err := e.Chat(ctx, "missing", "hello")
	assert.True(t, domerrors.IsNotFound(err))

	sess, _, err := e.Start(ctx)
	require.NoError(t, err)
	_, _, err = e.Chat(ctx, sess.ID, "   ")
	assert.True(t, domerrors.IsInvalidInput(err))

	long := make([]rune, DefaultMaxMessageLength+1)
	for i := range long {
		long[i] = 'é'
	}
	_, _, err = e.Chat(ctx, sess.ID, string(long))
	assert.True(t, domerrors.IsInvalidInput(err))
}

func TestEngine_Chat_SaveFailure(t *testing.T) {
	t.Parallel()
	e, store := newTestEngine(t, nil, nil)
	ctx := context.Background()

	sess, _, err := e.Start(ctx)
	require.NoError(t, err)

	store.saveErr = errors.New("disk full")
	_, _, err = e.Chat(ctx, sess.ID, "job")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "could not save the conversation", domerrors.UserMessage(err, ""))
}

func TestEngine_Chat_SurvivesCanceledContext(t *testing.T) {
	t.Parallel()
	e, store := newTestEngine(t, nil, nil)

	sess, _, err := e.Start(context.Background())
	require.NoError(t, err)

	// The session loads before cancellation is observed; the save must
	// still complete on a detached context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = e.Chat(ctx, sess.ID, "job")
	require.NoError(t, err)
	assert.Equal(t, PhaseAskCountry, store.sessions[sess.ID].Phase)
}

func TestEngine_ToggleProgram(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil, nil)
	ctx := context.Background()

	sess, _, err := e.Start(ctx)
	require.NoError(t, err)

	sess, err = e.ToggleProgram(ctx, sess.ID, "ielts-prep")
	require.NoError(t, err)
	sess, err = e.ToggleProgram(ctx, sess.ID, "german-intensive")
	require.NoError(t, err)
	assert.Equal(t, []string{"ielts-prep", "german-intensive"}, sess.Profile.SelectedPrograms)

	sess, err = e.ToggleProgram(ctx, sess.ID, "ielts-prep")
	require.NoError(t, err)
	assert.Equal(t, []string{"german-intensive"}, sess.Profile.SelectedPrograms)

	_, err = e.ToggleProgram(ctx, sess.ID, "underwater-basket-weaving")
	assert.True(t, domerrors.IsNotFound(err))
}

func TestEngine_ScheduleMeeting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	at := testNow.Add(48 * time.Hour)

	t.Run("requires recommend phase", func(t *testing.T) {
		t.Parallel()
		e, _ := newTestEngine(t, nil, nil)
		sess, _, err := e.Start(ctx)
		require.NoError(t, err)

		_, _, err = e.ScheduleMeeting(ctx, sess.ID, at, "")
		assert.True(t, domerrors.IsInvalidPhase(err))
	})

	t.Run("rejects past and zero times", func(t *testing.T) {
		t.Parallel()
		e, _ := newTestEngine(t, nil, nil)
		sess := completeSession(t, e)

		_, _, err := e.ScheduleMeeting(ctx, sess.ID, time.Time{}, "")
		assert.True(t, domerrors.IsInvalidInput(err))
		_, _, err = e.ScheduleMeeting(ctx, sess.ID, testNow.Add(-time.Hour), "")
		assert.True(t, domerrors.IsInvalidInput(err))
	})

	t.Run("books and keeps phase on later turns", func(t *testing.T) {
		t.Parallel()
		e, store := newTestEngine(t, nil, nil)
		sess := completeSession(t, e)

		sess, meeting, err := e.ScheduleMeeting(ctx, sess.ID, at, " evenings preferred ")
		require.NoError(t, err)
		assert.Equal(t, PhaseScheduleMeeting, sess.Phase)
		require.NotNil(t, sess.Profile.MeetingDatetime)
		assert.True(t, at.Equal(*sess.Profile.MeetingDatetime))
		assert.Equal(t, MeetingScheduled, meeting.Status)
		assert.Equal(t, "evenings preferred", meeting.Notes)
		require.Len(t, store.meetings, 1)

		sess, turn, err := e.Chat(ctx, sess.ID, "thanks!")
		require.NoError(t, err)
		assert.Equal(t, PhaseScheduleMeeting, turn.Phase)
		assert.Equal(t, PhaseScheduleMeeting, sess.Phase)
	})
}

func TestEngine_Meetings(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil, nil)
	ctx := context.Background()
	sess := completeSession(t, e)

	_, meeting, err := e.ScheduleMeeting(ctx, sess.ID, testNow.Add(24*time.Hour), "")
	require.NoError(t, err)

	meetings, err := e.Meetings(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, meeting.ID, meetings[0].ID)

	cancelled, err := e.CancelMeeting(ctx, sess.ID, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, MeetingCancelled, cancelled.Status)

	again, err := e.CancelMeeting(ctx, sess.ID, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, MeetingCancelled, again.Status)

	got, err := e.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Profile.MeetingDatetime)
	assert.Equal(t, PhaseScheduleMeeting, got.Phase)

	_, err = e.CancelMeeting(ctx, sess.ID, "nope")
	assert.True(t, domerrors.IsNotFound(err))
	_, err = e.Meetings(ctx, "missing")
	assert.True(t, domerrors.IsNotFound(err))
}

func TestEngine_Reset(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil, nil)
	ctx := context.Background()
	sess := completeSession(t, e)

	reset, err := e.Reset(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, reset.ID)
	assert.Equal(t, PhaseGreeting, reset.Phase)
	assert.Empty(t, reset.Messages)
	assert.False(t, reset.RecommendationsShown)
	assert.Equal(t, Profile{SelectedPrograms: []string{}}, reset.Profile)

	_, err = e.Reset(ctx, "missing")
	assert.True(t, domerrors.IsNotFound(err))
}

func TestEngine_Delete(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil, nil)
	ctx := context.Background()

	sess, _, err := e.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, e.Delete(ctx, sess.ID))

	_, err = e.Get(ctx, sess.ID)
	assert.True(t, domerrors.IsNotFound(err))
}

func TestEngine_Recommendations(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil, nil)
	ctx := context.Background()

	sess, _, err := e.Start(ctx)
	require.NoError(t, err)
	recs, err := e.Recommendations(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)

	sess = completeSession(t, e)
	recs, err = e.Recommendations(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
	for _, r := range recs {
		assert.GreaterOrEqual(t, r.MatchScore, 0)
		assert.LessOrEqual(t, r.MatchScore, 100)
	}
}

func TestEngine_Submit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requires recommend phase", func(t *testing.T) {
		t.Parallel()
		e, _ := newTestEngine(t, nil, nil)
		sess, _, err := e.Start(ctx)
		require.NoError(t, err)
		_, err = e.Submit(ctx, sess.ID)
		assert.True(t, domerrors.IsInvalidPhase(err))
	})

	t.Run("records profile and selection", func(t *testing.T) {
		t.Parallel()
		e, store := newTestEngine(t, nil, nil)
		sess := completeSession(t, e)
		_, err := e.ToggleProgram(ctx, sess.ID, "testdaf-prep")
		require.NoError(t, err)

		resp, err := e.Submit(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, resp.SessionID)
		assert.Equal(t, []string{"testdaf-prep"}, resp.SelectedPrograms)
		assert.Equal(t, catalog.GoalStudyAbroad, resp.Profile.Goal)
		assert.NotEmpty(t, resp.Recommendations)
		require.Len(t, store.responses, 1)

		responses, err := e.Responses(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, resp.ID, responses[0].ID)
	})
}
