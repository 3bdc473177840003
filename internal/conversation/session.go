package conversation

import (
	"context"
	"time"

	"github.com/genocem/Edumond-AI-portal/internal/matcher"
)

// Role identifies the author of a transcript message.
type Role string

// Transcript roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session transcript.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one student's conversation state.
type Session struct {
	ID                   string    `json:"id"`
	Phase                Phase     `json:"phase"`
	Profile              Profile   `json:"profile"`
	Messages             []Message `json:"messages"`
	RecommendationsShown bool      `json:"recommendationsShown"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// NewSession creates an empty session in the greeting phase.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Phase:     PhaseGreeting,
		Profile:   Profile{SelectedPrograms: []string{}},
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) append(role Role, content string, now time.Time) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: now})
	s.UpdatedAt = now
}

// reset clears everything but the id and creation time.
func (s *Session) reset(now time.Time) {
	s.Phase = PhaseGreeting
	s.Profile = Profile{SelectedPrograms: []string{}}
	s.Messages = []Message{}
	s.RecommendationsShown = false
	s.UpdatedAt = now
}

// MeetingStatus is the lifecycle state of a consultation.
type MeetingStatus string

// Meeting statuses.
const (
	MeetingScheduled MeetingStatus = "SCHEDULED"
	MeetingCompleted MeetingStatus = "COMPLETED"
	MeetingCancelled MeetingStatus = "CANCELLED"
)

// Meeting is a consultation booked from a session.
type Meeting struct {
	ID        string        `json:"id"`
	SessionID string        `json:"sessionId"`
	Datetime  time.Time     `json:"datetime"`
	Status    MeetingStatus `json:"status"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Response is a submitted questionnaire: the final profile, the student's
// selection and the recommendations they were shown.
type Response struct {
	ID               string                   `json:"id"`
	SessionID        string                   `json:"sessionId"`
	Profile          Profile                  `json:"profile"`
	Recommendations  []matcher.Recommendation `json:"recommendations"`
	SelectedPrograms []string                 `json:"selectedPrograms"`
	CreatedAt        time.Time                `json:"createdAt"`
}

// SessionStore persists sessions. LoadSession returns an error matching
// errors.ErrNotFound for unknown ids.
type SessionStore interface {
	LoadSession(ctx context.Context, id string) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error
	DeleteSession(ctx context.Context, id string) error
}

// ResponseStore persists submitted questionnaires.
type ResponseStore interface {
	SaveResponse(ctx context.Context, r *Response) error
	ListResponses(ctx context.Context, sessionID string) ([]Response, error)
}

// MeetingStore persists consultations. UpdateMeetingStatus returns an error
// matching errors.ErrNotFound when the meeting does not belong to the session.
type MeetingStore interface {
	SaveMeeting(ctx context.Context, m *Meeting) error
	ListMeetings(ctx context.Context, sessionID string) ([]Meeting, error)
	UpdateMeetingStatus(ctx context.Context, sessionID, meetingID string, status MeetingStatus) error
}

// Store is everything the Engine persists.
type Store interface {
	SessionStore
	ResponseStore
	MeetingStore
}

// Limiter gates producer calls per key.
type Limiter interface {
	Allow(key string) bool
}
