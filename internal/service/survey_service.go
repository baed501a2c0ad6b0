package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"finhealth/internal/cache"
	"finhealth/internal/engine"
	"finhealth/internal/model"
	"finhealth/internal/observability"
	"finhealth/internal/repository"
)

var (
	ErrSessionSubmitted = errors.New("session already submitted")
	ErrScoreNotFound    = errors.New("score calculation not found")
)

// SnapshotProvider hands out the current catalog snapshot
type SnapshotProvider interface {
	Snapshot() *engine.Snapshot
}

// SurveyOptions tunes a SurveyService; zero values fall back to defaults
type SurveyOptions struct {
	SessionTTL time.Duration
	CacheSize  int
	Scorer     *engine.Scorer
	Logger     *observability.Logger
	Metrics    *observability.Metrics
}

// AssembleRequest identifies who is taking the survey
type AssembleRequest struct {
	Profile   model.RespondentProfile `json:"profile"`
	Language  model.Language          `json:"language"`
	CompanyID string                  `json:"companyId,omitempty"`
}

// StartedSession is returned when a respondent starts the survey
type StartedSession struct {
	SessionID        string                    `json:"sessionId"`
	Token            string                    `json:"token"`
	Questions        []model.EffectiveQuestion `json:"questions"`
	MaxPossibleScore int                       `json:"maxPossibleScore"`
	TotalQuestions   int                       `json:"totalQuestions"`
	Language         model.Language            `json:"language"`
	CatalogVersion   string                    `json:"catalogVersion"`
}

// SurveyService handles question delivery, answer collection and scoring
type SurveyService struct {
	catalog     SnapshotProvider
	sessions    cache.SessionCache
	responses   repository.ResponseRepo
	scores      repository.ScoreRepo
	authSvc     *AuthService
	scorer      *engine.Scorer
	assembled   *lru.Cache[string, *model.QuestionSet]
	sessionTTL  time.Duration
	logger      *observability.Logger
	metrics     *observability.Metrics
	broadcaster Broadcaster
}

// NewSurveyService creates a new survey service
func NewSurveyService(
	catalog SnapshotProvider,
	sessions cache.SessionCache,
	responses repository.ResponseRepo,
	scores repository.ScoreRepo,
	authSvc *AuthService,
	opts SurveyOptions,
) (*SurveyService, error) {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	if opts.Scorer == nil {
		opts.Scorer = engine.NewScorer(nil)
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	assembled, err := lru.New[string, *model.QuestionSet](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create question cache: %w", err)
	}

	return &SurveyService{
		catalog:    catalog,
		sessions:   sessions,
		responses:  responses,
		scores:     scores,
		authSvc:    authSvc,
		scorer:     opts.Scorer,
		assembled:  assembled,
		sessionTTL: opts.SessionTTL,
		logger:     opts.Logger.Component("survey"),
		metrics:    opts.Metrics,
	}, nil
}

// SetBroadcaster sets the admin feed broadcaster
func (s *SurveyService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// AssembleQuestions returns the question set for a respondent from the current snapshot.
// Sets are cached per snapshot version, so a reload never serves stale wording.
func (s *SurveyService) AssembleQuestions(ctx context.Context, req AssembleRequest) (*model.QuestionSet, error) {
	snap := s.catalog.Snapshot()
	lang := req.Language.Normalize()
	key := assemblyKey(snap.Version(), lang, req.CompanyID, req.Profile)

	if set, ok := s.assembled.Get(key); ok {
		return copyQuestionSet(set), nil
	}

	set, err := snap.Assemble(req.Profile, lang, req.CompanyID)
	if err != nil {
		return nil, err
	}
	s.assembled.Add(key, set)
	s.metrics.ObserveAssembly(string(set.Language), req.Profile.HasChildren)
	s.logger.WithContext(ctx).Debug("question set assembled",
		"version", set.CatalogVersion,
		"language", set.Language,
		"company_id", req.CompanyID,
		"questions", len(set.Questions),
	)
	return copyQuestionSet(set), nil
}

// StartSession assembles the questions, freezes them in a new session and issues a respondent token
func (s *SurveyService) StartSession(ctx context.Context, req AssembleRequest) (*StartedSession, error) {
	set, err := s.AssembleQuestions(ctx, req)
	if err != nil {
		return nil, err
	}

	session := &model.SurveySession{
		ID:               uuid.New().String(),
		Profile:          req.Profile,
		CompanyID:        req.CompanyID,
		Language:         set.Language,
		CatalogVersion:   set.CatalogVersion,
		Questions:        set.Questions,
		MaxPossibleScore: set.MaxPossibleScore,
		Status:           model.SessionInProgress,
		StartedAt:        time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.authSvc.GenerateRespondentToken(session.ID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.metrics.SessionStarted()
	s.logger.WithContext(ctx).Info("session started",
		"session_id", session.ID,
		"version", session.CatalogVersion,
		"questions", len(session.Questions),
	)

	return &StartedSession{
		SessionID:        session.ID,
		Token:            token,
		Questions:        session.Questions,
		MaxPossibleScore: session.MaxPossibleScore,
		TotalQuestions:   len(session.Questions),
		Language:         session.Language,
		CatalogVersion:   session.CatalogVersion,
	}, nil
}

// GetSession returns a session with its recorded answers
func (s *SurveyService) GetSession(ctx context.Context, sessionID string) (*model.SurveySession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// RecordAnswer stores one answer against the session's frozen question list.
// Answering again overwrites the previous value.
func (s *SurveyService) RecordAnswer(ctx context.Context, sessionID, questionID string, value int) (*model.SessionProgress, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionSubmitted {
		return nil, ErrSessionSubmitted
	}

	collector := engine.RestoreCollector(session.Questions, session.Answers)
	if err := collector.Record(questionID, value); err != nil {
		return nil, err
	}
	if err := s.sessions.SetAnswer(ctx, sessionID, questionID, value); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	return &model.SessionProgress{
		SessionID:         sessionID,
		QuestionsAnswered: collector.Answered(),
		TotalQuestions:    collector.Total(),
		Complete:          collector.Complete(),
	}, nil
}

// Submit scores a complete session, persists the response and its write-once score,
// and pushes the result to the admin feed
func (s *SurveyService) Submit(ctx context.Context, sessionID string) (*model.ScoreCalculation, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionSubmitted {
		return nil, ErrSessionSubmitted
	}

	collector := engine.RestoreCollector(session.Questions, session.Answers)
	resp := collector.Response()
	resp.ID = uuid.New().String()
	resp.SessionID = session.ID
	resp.RespondentID = session.Profile.RespondentID
	resp.CompanyID = session.CompanyID
	resp.Language = session.Language
	resp.Profile = session.Profile
	resp.CatalogVersion = session.CatalogVersion

	calc, err := s.score(ctx, session.Questions, resp)
	if err != nil {
		return nil, err
	}

	claimed, err := s.sessions.MarkSubmitted(ctx, sessionID, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark session submitted: %w", err)
	}
	if !claimed {
		return nil, ErrSessionSubmitted
	}

	if err := s.persist(ctx, &resp, calc); err != nil {
		if relErr := s.sessions.ReleaseSubmit(ctx, sessionID, resp.ID); relErr != nil {
			s.logger.WithContext(ctx).Error("submit claim not released", "session_id", sessionID, "error", relErr)
		}
		return nil, err
	}
	s.metrics.SessionSubmitted()
	return calc, nil
}

// ScoreResponse assembles the questions for the response's profile and scores it without a session
func (s *SurveyService) ScoreResponse(ctx context.Context, resp model.SurveyResponse) (*model.ScoreCalculation, error) {
	set, err := s.AssembleQuestions(ctx, AssembleRequest{
		Profile:   resp.Profile,
		Language:  resp.Language,
		CompanyID: resp.CompanyID,
	})
	if err != nil {
		return nil, err
	}

	if resp.ID == "" {
		resp.ID = uuid.New().String()
	}
	resp.Language = set.Language
	resp.CatalogVersion = set.CatalogVersion
	resp.QuestionsAnswered = len(resp.Answers)
	resp.TotalQuestions = len(set.Questions)

	calc, err := s.score(ctx, set.Questions, resp)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, &resp, calc); err != nil {
		return nil, err
	}
	return calc, nil
}

// GetScore returns the stored calculation for a response
func (s *SurveyService) GetScore(ctx context.Context, responseID string) (*model.ScoreCalculation, error) {
	calc, err := s.scores.GetByResponseID(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	if calc == nil {
		return nil, ErrScoreNotFound
	}
	return calc, nil
}

func (s *SurveyService) score(ctx context.Context, questions []model.EffectiveQuestion, resp model.SurveyResponse) (*model.ScoreCalculation, error) {
	calc, err := s.scorer.Score(questions, resp)
	if err != nil {
		s.metrics.IncScoringFailure(failureReason(err))
		s.logger.WithContext(ctx).Warn("scoring rejected", "response_id", resp.ID, "error", err)
		return nil, err
	}
	calc.ResponseID = resp.ID
	calc.CompanyID = resp.CompanyID
	calc.CatalogVersion = resp.CatalogVersion
	calc.CalculatedAt = time.Now().UTC()
	return calc, nil
}

func (s *SurveyService) persist(ctx context.Context, resp *model.SurveyResponse, calc *model.ScoreCalculation) error {
	resp.SubmittedAt = calc.CalculatedAt
	if err := s.responses.Create(ctx, resp); err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	if err := s.scores.Create(ctx, calc); err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}

	s.metrics.ObserveScore(string(calc.Band), calc.TotalScore, calc.MaxPossibleScore)
	s.logger.WithContext(ctx).Info("score calculated",
		"response_id", calc.ResponseID,
		"total", calc.TotalScore,
		"max", calc.MaxPossibleScore,
		"band", calc.Band,
	)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAdmins(EventScoreCalculated, calc)
	}
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, engine.ErrIncompleteResponse):
		return "incomplete_response"
	case errors.Is(err, engine.ErrEmptyQuestionSet):
		return "empty_question_set"
	default:
		return "other"
	}
}

// assemblyKey identifies an assembled set; respondent ids never affect assembly and are left out
func assemblyKey(version string, lang model.Language, companyID string, profile model.RespondentProfile) string {
	demographics, _ := json.Marshal(profile.Demographics)
	return version + "|" + string(lang) + "|" + companyID + "|" + strconv.FormatBool(profile.HasChildren) + "|" + string(demographics)
}

func copyQuestionSet(set *model.QuestionSet) *model.QuestionSet {
	out := *set
	out.Questions = append([]model.EffectiveQuestion(nil), set.Questions...)
	return &out
}
