package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/conversation"
	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
)

// maxProgramsLimit caps the limit query parameter of /programs.
const maxProgramsLimit = 100

type turnResponse struct {
	Session *conversation.Session `json:"session"`
	Turn    conversation.Turn     `json:"turn"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type meetingRequest struct {
	Datetime time.Time `json:"datetime"`
	Notes    string    `json:"notes"`
}

type meetingResponse struct {
	Session *conversation.Session `json:"session"`
	Meeting *conversation.Meeting `json:"meeting"`
}

// recommendRequest is a stateless matcher call. Values are normalized the
// same way conversation extractions are; invalid ones count as unknown.
type recommendRequest struct {
	Goal         *string `json:"goal"`
	Country      *string `json:"country"`
	EnglishLevel *string `json:"englishLevel"`
	NativeLevel  *string `json:"nativeLevel"`
}

func (a *Application) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		a.respondError(c, domerrors.NewValidationError("body", "malformed JSON body"))
		return false
	}
	return true
}

func (a *Application) startSession(c *gin.Context) {
	sess, turn, err := a.engine.Start(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, turnResponse{Session: sess, Turn: turn})
}

func (a *Application) getSession(c *gin.Context) {
	sess, err := a.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (a *Application) deleteSession(c *gin.Context) {
	if err := a.engine.Delete(c.Request.Context(), c.Param("id")); err != nil {
		a.respondError(c, err)
		return
	}
	if a.llmLimiter != nil {
		a.llmLimiter.Forget(c.Param("id"))
	}
	c.Status(http.StatusNoContent)
}

func (a *Application) postMessage(c *gin.Context) {
	var req messageRequest
	if !a.bindJSON(c, &req) {
		return
	}
	sess, turn, err := a.engine.Chat(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, turnResponse{Session: sess, Turn: turn})
}

func (a *Application) sessionRecommendations(c *gin.Context) {
	recs, err := a.engine.Recommendations(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (a *Application) toggleProgram(c *gin.Context) {
	sess, err := a.engine.ToggleProgram(c.Request.Context(), c.Param("id"), c.Param("courseId"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (a *Application) scheduleMeeting(c *gin.Context) {
	var req meetingRequest
	if !a.bindJSON(c, &req) {
		return
	}
	sess, meeting, err := a.engine.ScheduleMeeting(c.Request.Context(), c.Param("id"), req.Datetime, req.Notes)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meetingResponse{Session: sess, Meeting: meeting})
}

func (a *Application) listMeetings(c *gin.Context) {
	meetings, err := a.engine.Meetings(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

func (a *Application) cancelMeeting(c *gin.Context) {
	meeting, err := a.engine.CancelMeeting(c.Request.Context(), c.Param("id"), c.Param("meetingId"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

func (a *Application) resetSession(c *gin.Context) {
	sess, err := a.engine.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (a *Application) submit(c *gin.Context) {
	resp, err := a.engine.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a *Application) listResponses(c *gin.Context) {
	responses, err := a.engine.Responses(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

func (a *Application) listPrograms(c *gin.Context) {
	q := catalog.Query{
		Text:    c.Query("q"),
		Country: c.Query("country"),
	}
	if raw := c.Query("category"); raw != "" {
		category, ok := catalog.ParseCategory(raw)
		if !ok {
			a.respondError(c, domerrors.NewValidationError("category", "unknown category "+strconv.Quote(raw)))
			return
		}
		q.Category = category
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxProgramsLimit {
			a.respondError(c, domerrors.NewValidationError("limit", "must be between 1 and "+strconv.Itoa(maxProgramsLimit)))
			return
		}
		q.Limit = limit
	}

	programs, err := a.catalog.Find(q)
	if err != nil {
		a.respondError(c, err)
		return
	}
	if programs == nil {
		programs = []catalog.Course{}
	}
	c.JSON(http.StatusOK, gin.H{"programs": programs, "count": len(programs)})
}

func (a *Application) getProgram(c *gin.Context) {
	course, err := a.catalog.Get(c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (a *Application) listCountries(c *gin.Context) {
	countries := a.catalog.Countries()
	if countries == nil {
		countries = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

func (a *Application) recommend(c *gin.Context) {
	var req recommendRequest
	if !a.bindJSON(c, &req) {
		return
	}
	profile := conversation.Profile{}.Merge(conversation.Extraction{
		Goal:         req.Goal,
		Country:      req.Country,
		EnglishLevel: req.EnglishLevel,
		NativeLevel:  req.NativeLevel,
	})
	recs := a.processor.Recommend(profile)
	a.metrics.RecordRecommendations(len(recs))
	c.JSON(http.StatusOK, gin.H{"profile": profile, "recommendations": recs})
}
