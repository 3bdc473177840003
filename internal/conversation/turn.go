package conversation

import (
	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/matcher"
)

// Source identifies who produced the reply of a turn.
type Source string

// Turn sources.
const (
	SourceProducer Source = "producer"
	SourceFallback Source = "fallback"
)

// ProgramRecommendation is a recommendation enriched with catalog details.
type ProgramRecommendation struct {
	matcher.Recommendation
	Description string   `json:"description"`
	Format      string   `json:"format"`
	Levels      []string `json:"levels"`
}

// Turn is the outcome of processing one user message.
type Turn struct {
	Reply     string  `json:"reply"`
	Phase     Phase   `json:"phase"`
	Extracted Profile `json:"extracted"`
	// Recommendations is nil unless the turn reached the recommend phase
	// with goal and country known. An empty non-nil slice means no match.
	Recommendations []ProgramRecommendation `json:"recommendations"`
	Source          Source                  `json:"source"`
	// ClaimedPhase is the phase the producer announced, if it named a valid one.
	ClaimedPhase Phase `json:"-"`
}

// PhaseDisagrees reports whether the producer claimed a phase other than the
// inferred one.
func (t Turn) PhaseDisagrees() bool {
	return t.ClaimedPhase != "" && t.ClaimedPhase != t.Phase
}

// ExternalReply is what a producer returned for a turn. Data is set when the
// producer delivered its extraction out of band; otherwise it is parsed from
// the data block in Text.
type ExternalReply struct {
	Text string
	Data *Extraction
}

// Processor turns producer replies into conversation turns. It is stateless
// apart from the catalog and matcher it reads.
type Processor struct {
	catalog *catalog.Catalog
	matcher *matcher.Matcher
}

// NewProcessor creates a Processor. A nil matcher uses matcher.Default.
func NewProcessor(c *catalog.Catalog, m *matcher.Matcher) *Processor {
	if m == nil {
		m = matcher.Default
	}
	return &Processor{catalog: c, matcher: m}
}

// Process merges the producer's extraction into profile and infers the next
// phase. Replies without a usable extraction are handled entirely by the
// local fallback using lastUserMessage.
func (p *Processor) Process(reply ExternalReply, lastUserMessage string, profile Profile) Turn {
	ext := reply.Data
	visible := StripDataBlocks(reply.Text)
	if ext == nil {
		var err error
		visible, ext, err = ParseReply(reply.Text)
		if err != nil {
			return p.Fallback(lastUserMessage, profile)
		}
	}

	merged := profile.Merge(*ext)
	phase := InferPhase(merged)
	if visible == "" {
		visible = CannedReply(phase, merged)
	}

	turn := Turn{
		Reply:     visible,
		Phase:     phase,
		Extracted: merged,
		Source:    SourceProducer,
	}
	if ext.Phase != nil {
		if claimed, ok := ParsePhase(*ext.Phase); ok {
			turn.ClaimedPhase = claimed
		}
	}
	turn.Recommendations = p.recommendFor(phase, merged)
	return turn
}

// Fallback builds a turn from keyword extraction and canned replies.
func (p *Processor) Fallback(message string, profile Profile) Turn {
	merged := profile.Merge(Extract(message, profile))
	phase := InferPhase(merged)
	return Turn{
		Reply:           CannedReply(phase, merged),
		Phase:           phase,
		Extracted:       merged,
		Recommendations: p.recommendFor(phase, merged),
		Source:          SourceFallback,
	}
}

func (p *Processor) recommendFor(phase Phase, profile Profile) []ProgramRecommendation {
	if phase != PhaseRecommend || !profile.Goal.Known() || profile.Country == "" {
		return nil
	}
	return p.Recommend(profile)
}

// Recommend matches profile against the catalog and attaches each course's
// description, format and levels. The result is never nil.
func (p *Processor) Recommend(profile Profile) []ProgramRecommendation {
	recs := p.matcher.Match(profile.MatcherProfile(), p.catalog.All())
	out := make([]ProgramRecommendation, 0, len(recs))
	for _, r := range recs {
		pr := ProgramRecommendation{Recommendation: r, Levels: []string{}}
		if c, ok := p.catalog.ByID(r.CourseID); ok {
			pr.Description = c.Description
			pr.Format = c.Format
			pr.Levels = c.Levels
		}
		out = append(out, pr)
	}
	return out
}
