// Package ragsrv implements the analysis operations: each one loads the
// candidate documents from the graph, builds a grounded prompt and runs a
// schema-constrained completion, re-validating the output before it is
// returned.
package ragsrv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hirelens/hirelens/internal/ai/llmclient"
	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/pkg/metrics"
	"github.com/hirelens/hirelens/recruitment/rag"
	"github.com/hirelens/hirelens/recruitment/resume"
)

// Feature labels used on the metrics counters.
const (
	featureExplainMatch = "explain_match"
	featureCompare      = "compare_candidates"
	featureInterview    = "interview_questions"
)

const (
	explainTemperature   = 0.2
	compareTemperature   = 0.2
	interviewTemperature = 0.4

	// Resume fragments retrieved as extra context for a match explanation.
	contextVectorLimit = 20
)

// QueryEncoder embeds free text for context retrieval.
type QueryEncoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Dependencies wires the analysis service.
type Dependencies struct {
	LLM     *llmclient.Client
	Resumes resume.GraphStore
	Vectors resume.VectorStore
	Encoder QueryEncoder
	Metrics *metrics.Metrics
}

// Service answers match-explanation, comparison and interview-question
// requests over stored resumes.
type Service struct {
	llm      *llmclient.Client
	resumes  resume.GraphStore
	vectors  resume.VectorStore
	encoder  QueryEncoder
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// NewService creates the analysis service.
func NewService(deps Dependencies) *Service {
	return &Service{
		llm:      deps.LLM,
		resumes:  deps.Resumes,
		vectors:  deps.Vectors,
		encoder:  deps.Encoder,
		metrics:  deps.Metrics,
		validate: validator.New(),
	}
}

// ExplainMatch scores one stored resume against a job description. The
// prompt carries the full structured document plus the resume fragments
// most similar to the job text.
func (s *Service) ExplainMatch(ctx context.Context, req rag.ExplainMatchRequest) (_ *rag.ExplainMatchResponse, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRAG(featureExplainMatch, start, err) }()

	if verr := s.validate.Struct(req); verr != nil {
		return nil, rag.ErrRegistry.NewWithCause(rag.CodeInvalidRequest, verr)
	}

	uid := kernel.NewResumeUID(req.UID)
	r, err := s.resumes.GetResume(ctx, uid)
	if err != nil {
		return nil, err
	}

	doc, err := marshalResume(r)
	if err != nil {
		return nil, err
	}
	hits := s.retrieveContext(ctx, uid, req.JobDescription)

	out, lerr := llmclient.Run[rag.JobMatchExplanation](ctx, s.llm, llmclient.Request{
		System:      explainSystemPrompt,
		User:        buildExplainPrompt(doc, req.JobDescription, hits),
		Temperature: explainTemperature,
		SchemaName:  "job_match_explanation",
	})
	if lerr != nil {
		return nil, mapLLMError(lerr)
	}
	if verr := s.validate.Struct(out); verr != nil {
		return nil, rag.ErrRegistry.NewWithCause(rag.CodeGenerationInvalid, verr)
	}

	logx.Infow("match explained",
		"uid", uid.String(),
		"recommendation", string(out.Recommendation),
		"match_score", out.MatchScore,
	)
	return &rag.ExplainMatchResponse{
		UID:           uid,
		CandidateName: r.Name(),
		Explanation:   out,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// CompareCandidates ranks two to five stored resumes against each other.
// Every requested uid must exist; the model must score exactly that set.
func (s *Service) CompareCandidates(ctx context.Context, req rag.CompareCandidatesRequest) (_ *rag.CompareCandidatesResponse, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRAG(featureCompare, start, err) }()

	if verr := s.validate.Struct(req); verr != nil {
		return nil, rag.ErrRegistry.NewWithCause(rag.CodeInvalidRequest, verr)
	}

	uids := make([]kernel.ResumeUID, len(req.UIDs))
	for i, u := range req.UIDs {
		uids[i] = kernel.NewResumeUID(u)
	}
	candidates, err := s.resumes.GetResumesByIds(ctx, uids)
	if err != nil {
		return nil, err
	}
	if missing := missingUIDs(req.UIDs, candidates); len(missing) > 0 {
		return nil, resume.ErrResumeNotFound().WithDetail("uids", missing)
	}

	user, err := buildComparePrompt(candidates, req.Criteria, req.JobContext)
	if err != nil {
		return nil, err
	}

	out, lerr := llmclient.Run[rag.CandidateComparison](ctx, s.llm, llmclient.Request{
		System:      compareSystemPrompt,
		User:        user,
		Temperature: compareTemperature,
		SchemaName:  "candidate_comparison",
	})
	if lerr != nil {
		return nil, mapLLMError(lerr)
	}
	if verr := s.validate.Struct(out); verr != nil {
		return nil, rag.ErrRegistry.NewWithCause(rag.CodeGenerationInvalid, verr)
	}
	if verr := verifyComparisonUIDs(req.UIDs, out); verr != nil {
		return nil, rag.ErrRegistry.NewWithCause(rag.CodeGenerationInvalid, verr)
	}
	out.RankByOverall()

	logx.Infow("candidates compared",
		"count", len(req.UIDs),
		"top_uid", out.RankedUIDs[0],
	)
	return &rag.CompareCandidatesResponse{
		Comparison:  out,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// GenerateInterviewQuestions builds an interview script grounded in one
// stored resume.
func (s *Service) GenerateInterviewQuestions(ctx context.Context, req rag.InterviewQuestionsRequest) (_ *rag.InterviewQuestionsResponse, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRAG(featureInterview, start, err) }()

	if verr := s.validate.Struct(req); verr != nil {
		return nil, rag.ErrRegistry.NewWithCause(rag.CodeInvalidRequest, verr)
	}

	uid := kernel.NewResumeUID(req.UID)
	r, err := s.resumes.GetResume(ctx, uid)
	if err != nil {
		return nil, err
	}

	doc, err := marshalResume(r)
	if err != nil {
		return nil, err
	}

	out, lerr := llmclient.Run[rag.InterviewQuestionSet](ctx, s.llm, llmclient.Request{
		System:      interviewSystemPrompt,
		User:        buildInterviewPrompt(doc, req),
		Temperature: interviewTemperature,
		SchemaName:  "interview_question_set",
	})
	if lerr != nil {
		return nil, mapLLMError(lerr)
	}
	if verr := s.validate.Struct(out); verr != nil {
		return nil, rag.ErrRegistry.NewWithCause(rag.CodeGenerationInvalid, verr)
	}
	// The requested type is authoritative even when the model drifts.
	out.InterviewType = req.InterviewType

	logx.Infow("interview questions generated",
		"uid", uid.String(),
		"type", string(out.InterviewType),
		"questions", len(out.Questions),
	)
	return &rag.InterviewQuestionsResponse{
		UID:           uid,
		CandidateName: r.Name(),
		QuestionSet:   out,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// retrieveContext pulls the resume fragments closest to the job text.
// Retrieval is best-effort: an explanation still works from the full
// document when the vector side is down.
func (s *Service) retrieveContext(ctx context.Context, uid kernel.ResumeUID, query string) []resume.VectorHit {
	vec, err := s.encoder.Encode(ctx, query)
	if err != nil {
		logx.Warnw("context encoding failed", "uid", uid.String(), "error", err)
		return nil
	}
	hits, err := s.vectors.Search(ctx, vec, contextVectorLimit, 0, &resume.PointFilter{UID: uid.String()})
	if err != nil {
		logx.Warnw("context retrieval failed", "uid", uid.String(), "error", err)
		return nil
	}
	return hits
}

// missingUIDs reports requested uids absent from the loaded batch.
func missingUIDs(requested []string, found []*resume.Resume) []string {
	have := make(map[string]bool, len(found))
	for _, r := range found {
		have[r.UID.String()] = true
	}
	var missing []string
	for _, uid := range requested {
		if !have[uid] {
			missing = append(missing, uid)
		}
	}
	return missing
}

// verifyComparisonUIDs rejects a comparison that scores a uid that was
// never requested or silently drops one.
func verifyComparisonUIDs(requested []string, out *rag.CandidateComparison) error {
	want := make(map[string]bool, len(requested))
	for _, uid := range requested {
		want[uid] = true
	}
	scored := make(map[string]bool, len(out.Scores))
	for _, sc := range out.Scores {
		if !want[sc.UID] {
			return fmt.Errorf("scored unknown uid %s", sc.UID)
		}
		scored[sc.UID] = true
	}
	for _, uid := range requested {
		if !scored[uid] {
			return fmt.Errorf("no score for uid %s", uid)
		}
	}
	return nil
}

// mapLLMError keeps model unavailability retryable while output that
// failed schema validation twice fails fast.
func mapLLMError(err error) error {
	if errors.Is(err, llmclient.ErrInvalidResponse) {
		return rag.ErrGenerationFailed().WithDetail("reason", "model returned unusable output")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return rag.ErrLLMUnavailable()
	}
	return rag.ErrRegistry.NewWithCause(rag.CodeLLMUnavailable, err)
}
