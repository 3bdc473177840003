package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/ctxutil"
	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
	"github.com/genocem/Edumond-AI-portal/internal/genai"
	"github.com/genocem/Edumond-AI-portal/internal/matcher"
	"github.com/genocem/Edumond-AI-portal/internal/metrics"
	"github.com/genocem/Edumond-AI-portal/internal/sliceutil"
)

// Engine defaults.
const (
	DefaultTurnTimeout      = 60 * time.Second
	DefaultSaveTimeout      = 5 * time.Second
	DefaultMaxMessageLength = 2000
	DefaultMaxHistory       = 20
)

// EngineConfig wires an Engine. Catalog and Store are required.
type EngineConfig struct {
	Catalog *catalog.Catalog
	Matcher *matcher.Matcher
	Store   Store

	// Producer generates replies. Nil means every turn uses the local fallback.
	Producer genai.Producer
	// Limiter gates producer calls per session. Nil allows every call.
	Limiter Limiter
	Metrics *metrics.Metrics

	TurnTimeout      time.Duration
	MaxMessageLength int
	// MaxHistory caps the transcript messages sent to the producer.
	MaxHistory int

	Now   func() time.Time
	NewID func() string
}

// Engine runs conversation operations against persisted sessions.
// Operations on different sessions may run concurrently; each session is
// assumed to have a single writer at a time.
type Engine struct {
	catalog   *catalog.Catalog
	processor *Processor
	store     Store
	producer  genai.Producer
	limiter   Limiter
	metrics   *metrics.Metrics

	turnTimeout      time.Duration
	maxMessageLength int
	maxHistory       int
	now              func() time.Time
	newID            func() string
}

// NewEngine creates an Engine, filling unset optional fields with defaults.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("conversation: catalog is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("conversation: store is required")
	}

	e := &Engine{
		catalog:          cfg.Catalog,
		processor:        NewProcessor(cfg.Catalog, cfg.Matcher),
		store:            cfg.Store,
		producer:         cfg.Producer,
		limiter:          cfg.Limiter,
		metrics:          cfg.Metrics,
		turnTimeout:      cfg.TurnTimeout,
		maxMessageLength: cfg.MaxMessageLength,
		maxHistory:       cfg.MaxHistory,
		now:              cfg.Now,
		newID:            cfg.NewID,
	}
	if e.turnTimeout <= 0 {
		e.turnTimeout = DefaultTurnTimeout
	}
	if e.maxMessageLength <= 0 {
		e.maxMessageLength = DefaultMaxMessageLength
	}
	if e.maxHistory <= 0 {
		e.maxHistory = DefaultMaxHistory
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e, nil
}

// Start creates a session and its greeting turn.
func (e *Engine) Start(ctx context.Context) (*Session, Turn, error) {
	sess := NewSession(e.newID(), e.now())
	ctx = ctxutil.WithSessionID(ctx, sess.ID)

	reply, source := e.greet(ctx)
	sess.Phase = InferPhase(sess.Profile)
	sess.append(RoleAssistant, reply, e.now())

	if err := e.save(ctx, sess); err != nil {
		return nil, Turn{}, err
	}
	e.metrics.RecordTurn(string(source), string(sess.Phase))

	slog.InfoContext(ctx, "session started", "source", source)
	return sess, Turn{
		Reply:     reply,
		Phase:     sess.Phase,
		Extracted: sess.Profile,
		Source:    source,
	}, nil
}

func (e *Engine) greet(ctx context.Context) (string, Source) {
	if e.producer == nil {
		return GreetingReply, SourceFallback
	}

	gctx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	defer cancel()

	text, err := e.producer.Greet(gctx)
	if err != nil {
		slog.WarnContext(ctx, "greeting failed, using canned reply", "error", err)
		return GreetingReply, SourceFallback
	}
	if visible := StripDataBlocks(text); visible != "" {
		return visible, SourceProducer
	}
	return GreetingReply, SourceFallback
}

// Get loads a session.
func (e *Engine) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := e.store.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return sess, nil
}

// Chat processes one user message. Producer failures, rate limiting and
// unusable replies all degrade to the local fallback, so Chat only fails for
// invalid input, unknown sessions and storage errors.
func (e *Engine) Chat(ctx context.Context, id, message string) (*Session, Turn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, Turn{}, domerrors.NewValidationError("message", "must not be empty")
	}
	if utf8.RuneCountInString(message) > e.maxMessageLength {
		return nil, Turn{}, domerrors.NewValidationError("message",
			fmt.Sprintf("must be at most %d characters", e.maxMessageLength))
	}

	sess, err := e.Get(ctx, id)
	if err != nil {
		return nil, Turn{}, err
	}
	ctx = ctxutil.WithSessionID(ctx, sess.ID)

	sess.append(RoleUser, message, e.now())
	turn := e.produceTurn(ctx, sess, message)

	if sess.Phase == PhaseScheduleMeeting {
		turn.Phase = PhaseScheduleMeeting
	}
	if turn.PhaseDisagrees() {
		slog.InfoContext(ctx, "producer phase disagrees with inferred phase",
			"claimed", turn.ClaimedPhase,
			"inferred", turn.Phase)
		e.metrics.RecordPhaseDisagreement(string(turn.ClaimedPhase), string(turn.Phase))
	}

	sess.Profile = turn.Extracted
	sess.Phase = turn.Phase
	if turn.Recommendations != nil {
		sess.RecommendationsShown = true
		e.metrics.RecordRecommendations(len(turn.Recommendations))
	}
	sess.append(RoleAssistant, turn.Reply, e.now())

	if err := e.save(ctx, sess); err != nil {
		return nil, Turn{}, err
	}
	e.metrics.RecordTurn(string(turn.Source), string(turn.Phase))
	return sess, turn, nil
}

func (e *Engine) produceTurn(ctx context.Context, sess *Session, message string) Turn {
	if e.producer == nil {
		return e.processor.Fallback(message, sess.Profile)
	}
	if e.limiter != nil && !e.limiter.Allow(sess.ID) {
		slog.WarnContext(ctx, "session over producer rate limit, using fallback")
		return e.processor.Fallback(message, sess.Profile)
	}

	tctx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	defer cancel()

	text, err := e.producer.Reply(tctx, genai.TurnRequest{
		Messages:  e.history(sess),
		Collected: sess.Profile.Collected(),
	})
	if err != nil {
		slog.WarnContext(ctx, "producer failed, using fallback", "error", err)
		return e.processor.Fallback(message, sess.Profile)
	}
	return e.processor.Process(ExternalReply{Text: text}, message, sess.Profile)
}

// history converts the newest transcript messages for the producer. The
// window always starts with a user message.
func (e *Engine) history(sess *Session) []genai.Message {
	msgs := sess.Messages
	if len(msgs) > e.maxHistory {
		msgs = msgs[len(msgs)-e.maxHistory:]
	}
	for len(msgs) > 1 && msgs[0].Role != RoleUser {
		msgs = msgs[1:]
	}

	out := make([]genai.Message, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleAssistant
		}
		out = append(out, genai.Message{Role: role, Content: m.Content})
	}
	return out
}

// ToggleProgram adds or removes a catalog course from the selection.
func (e *Engine) ToggleProgram(ctx context.Context, id, courseID string) (*Session, error) {
	if _, err := e.catalog.Get(courseID); err != nil {
		return nil, err
	}
	sess, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.Profile.SelectedPrograms = sliceutil.Toggle(sess.Profile.SelectedPrograms, courseID)
	sess.UpdatedAt = e.now()
	if err := e.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ScheduleMeeting books a consultation and moves the session to
// schedule_meeting. The session must have reached the recommend phase.
func (e *Engine) ScheduleMeeting(ctx context.Context, id string, at time.Time, notes string) (*Session, *Meeting, error) {
	if at.IsZero() {
		return nil, nil, domerrors.NewValidationError("datetime", "is required")
	}
	now := e.now()
	if !at.After(now) {
		return nil, nil, domerrors.NewValidationError("datetime", "must be in the future")
	}

	sess, err := e.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !sess.Phase.AtLeast(PhaseRecommend) {
		return nil, nil, fmt.Errorf("schedule meeting in phase %s: %w", sess.Phase, domerrors.ErrInvalidPhase)
	}

	at = at.UTC()
	meeting := &Meeting{
		ID:        e.newID(),
		SessionID: sess.ID,
		Datetime:  at,
		Status:    MeetingScheduled,
		Notes:     strings.TrimSpace(notes),
		CreatedAt: now,
	}
	sctx, cancel := e.detach(ctx)
	defer cancel()
	if err := e.store.SaveMeeting(sctx, meeting); err != nil {
		return nil, nil, domerrors.Op{Module: "meeting", Name: "save"}.Wrap(err, "could not schedule the meeting")
	}

	sess.Profile.MeetingDatetime = &at
	sess.Phase = PhaseScheduleMeeting
	sess.UpdatedAt = now
	if err := e.save(ctx, sess); err != nil {
		return nil, nil, err
	}

	slog.InfoContext(ctx, "meeting scheduled", "meeting_id", meeting.ID, "datetime", at)
	return sess, meeting, nil
}

// Meetings lists the consultations booked from a session.
func (e *Engine) Meetings(ctx context.Context, id string) ([]Meeting, error) {
	if _, err := e.Get(ctx, id); err != nil {
		return nil, err
	}
	meetings, err := e.store.ListMeetings(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

// CancelMeeting marks a consultation cancelled. Cancelling twice is a no-op.
// When the cancelled meeting is the one recorded on the profile, the
// recorded time is cleared; the phase stays schedule_meeting.
func (e *Engine) CancelMeeting(ctx context.Context, id, meetingID string) (*Meeting, error) {
	meetings, err := e.Meetings(ctx, id)
	if err != nil {
		return nil, err
	}

	var found *Meeting
	for i := range meetings {
		if meetings[i].ID == meetingID {
			found = &meetings[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("meeting %s: %w", meetingID, domerrors.ErrNotFound)
	}
	if found.Status == MeetingCancelled {
		return found, nil
	}

	sctx, cancel := e.detach(ctx)
	defer cancel()
	if err := e.store.UpdateMeetingStatus(sctx, id, meetingID, MeetingCancelled); err != nil {
		return nil, fmt.Errorf("cancel meeting %s: %w", meetingID, err)
	}
	found.Status = MeetingCancelled

	sess, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if dt := sess.Profile.MeetingDatetime; dt != nil && dt.Equal(found.Datetime) {
		sess.Profile.MeetingDatetime = nil
		sess.UpdatedAt = e.now()
		if err := e.save(ctx, sess); err != nil {
			return nil, err
		}
	}
	return found, nil
}

// Reset clears a session back to the greeting phase, keeping its id.
func (e *Engine) Reset(ctx context.Context, id string) (*Session, error) {
	sess, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.reset(e.now())
	if err := e.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes a session and everything stored with it.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Recommendations matches the session's current profile. Missing fields are
// scored as unknown; an unknown country yields no recommendations.
func (e *Engine) Recommendations(ctx context.Context, id string) ([]ProgramRecommendation, error) {
	sess, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.processor.Recommend(sess.Profile), nil
}

// Submit records the session's final profile, its selection and the
// recommendations it was shown. The session must have reached the recommend
// phase.
func (e *Engine) Submit(ctx context.Context, id string) (*Response, error) {
	sess, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Phase.AtLeast(PhaseRecommend) {
		return nil, fmt.Errorf("submit in phase %s: %w", sess.Phase, domerrors.ErrInvalidPhase)
	}

	recs := e.processor.Recommend(sess.Profile)
	plain := make([]matcher.Recommendation, 0, len(recs))
	for _, r := range recs {
		plain = append(plain, r.Recommendation)
	}

	resp := &Response{
		ID:               e.newID(),
		SessionID:        sess.ID,
		Profile:          sess.Profile,
		Recommendations:  plain,
		SelectedPrograms: append([]string{}, sess.Profile.SelectedPrograms...),
		CreatedAt:        e.now(),
	}

	sctx, cancel := e.detach(ctx)
	defer cancel()
	if err := e.store.SaveResponse(sctx, resp); err != nil {
		return nil, domerrors.Op{Module: "response", Name: "save"}.Wrap(err, "could not submit your answers")
	}

	slog.InfoContext(ctx, "questionnaire submitted",
		"session_id", sess.ID,
		"selected", len(resp.SelectedPrograms))
	return resp, nil
}

// Responses lists the questionnaires submitted from a session.
func (e *Engine) Responses(ctx context.Context, id string) ([]Response, error) {
	if _, err := e.Get(ctx, id); err != nil {
		return nil, err
	}
	responses, err := e.store.ListResponses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}

// detach returns a context that survives client disconnects so a completed
// turn is not lost after a slow producer call.
func (e *Engine) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctxutil.PreserveTracing(ctx), DefaultSaveTimeout)
}

func (e *Engine) save(ctx context.Context, sess *Session) error {
	sctx, cancel := e.detach(ctx)
	defer cancel()
	if err := e.store.SaveSession(sctx, sess); err != nil {
		return domerrors.Op{Module: "session", Name: "save"}.Wrap(fmt.Errorf("session %s: %w", sess.ID, err), "could not save the conversation")
	}
	return nil
}
