package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/greensteps/greensteps-api/internal/dto"
	"github.com/greensteps/greensteps-api/internal/models"
	"github.com/greensteps/greensteps-api/pkg/config"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
	"github.com/greensteps/greensteps-api/pkg/export"
)

type progressionSchoolRepository interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	UpdateProgression(ctx context.Context, id string, state models.ProgressionState) error
}

type approvedEvidenceReader interface {
	ApprovedRequirementIDs(ctx context.Context, schoolID string, round int) ([]string, error)
}

type requirementLister interface {
	ListByStage(ctx context.Context, stage models.Stage) ([]models.EvidenceRequirement, error)
}

type certificateStore interface {
	FindBySchoolRound(ctx context.Context, schoolID string, round int) (*models.Certificate, error)
	Create(ctx context.Context, cert *models.Certificate) error
}

type certificateWriter interface {
	Save(filename string, data []byte) (string, error)
}

type celebrationNotifier interface {
	SendStageCelebration(ctx context.Context, school *models.School, stage models.Stage)
	SendRoundCelebration(ctx context.Context, school *models.School, round int)
}

type snapshotCache interface {
	Get(ctx context.Context, schoolID string) (*dto.ProgressionSnapshot, error)
	Set(ctx context.Context, snapshot *dto.ProgressionSnapshot) error
	Invalidate(ctx context.Context, schoolID string) error
}

type progressionMetrics interface {
	IncStageComplete(stage string)
	IncRoundComplete()
}

// ProgressionService recomputes a school's stage and round state from
// approved evidence. Every recompute derives the truth from storage rather
// than from the triggering event, which makes repeated invocations for the
// same state change no-ops: flags only move upward inside a round, the
// certificate table's unique constraint absorbs duplicate round
// completions, and an unchanged state is never written back.
type ProgressionService struct {
	schools      progressionSchoolRepository
	evidence     approvedEvidenceReader
	requirements requirementLister
	certificates certificateStore
	renderer     *export.CertificateRenderer
	files        certificateWriter
	notifier     celebrationNotifier
	cache        snapshotCache
	audit        auditRecorder
	metrics      progressionMetrics
	cfg          config.ProgressionConfig
	logger       *zap.Logger
}

// NewProgressionService constructs the service.
func NewProgressionService(
	schools progressionSchoolRepository,
	evidence approvedEvidenceReader,
	requirements requirementLister,
	certificates certificateStore,
	renderer *export.CertificateRenderer,
	files certificateWriter,
	notifier celebrationNotifier,
	cache snapshotCache,
	audit auditRecorder,
	metrics progressionMetrics,
	cfg config.ProgressionConfig,
	logger *zap.Logger,
) *ProgressionService {
	if renderer == nil {
		renderer = export.NewCertificateRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressionService{
		schools:      schools,
		evidence:     evidence,
		requirements: requirements,
		certificates: certificates,
		renderer:     renderer,
		files:        files,
		notifier:     notifier,
		cache:        cache,
		audit:        audit,
		metrics:      metrics,
		cfg:          cfg,
		logger:       logger,
	}
}

type stageCoverage struct {
	stage     models.Stage
	total     int
	satisfied int
	complete  bool
}

// coverage computes per-stage requirement satisfaction for the given round
// from approved, requirement-linked evidence.
func (s *ProgressionService) coverage(ctx context.Context, schoolID string, round int) ([]stageCoverage, error) {
	approvedIDs, err := s.evidence.ApprovedRequirementIDs(ctx, schoolID, round)
	if err != nil {
		return nil, fmt.Errorf("load approved requirement ids: %w", err)
	}
	approved := make(map[string]struct{}, len(approvedIDs))
	for _, id := range approvedIDs {
		approved[id] = struct{}{}
	}

	result := make([]stageCoverage, 0, len(models.RequiredStages))
	for _, stage := range models.RequiredStages {
		reqs, err := s.requirements.ListByStage(ctx, stage)
		if err != nil {
			return nil, fmt.Errorf("list requirements for stage %s: %w", stage, err)
		}
		cov := stageCoverage{stage: stage, total: len(reqs)}
		for _, req := range reqs {
			if _, ok := approved[req.ID]; ok {
				cov.satisfied++
			}
		}
		// A stage with no requirements defined never auto-completes.
		cov.complete = cov.total > 0 && cov.satisfied == cov.total
		result = append(result, cov)
	}
	return result, nil
}

// CheckAndUpdateSchoolProgression recomputes stage flags for the school's
// current round, completes the round when all stages are done, and
// persists only when something actually changed.
func (s *ProgressionService) CheckAndUpdateSchoolProgression(ctx context.Context, schoolID string) error {
	school, err := s.schools.FindByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return fmt.Errorf("load school: %w", err)
	}

	coverage, err := s.coverage(ctx, schoolID, school.CurrentRound)
	if err != nil {
		return err
	}

	state := models.ProgressionState{
		CurrentRound:         school.CurrentRound,
		InspireCompleted:     school.InspireCompleted,
		InvestigateCompleted: school.InvestigateCompleted,
		ActCompleted:         school.ActCompleted,
		ProgressPercentage:   school.ProgressPercentage,
	}

	var newlyCompleted []models.Stage
	for _, cov := range coverage {
		if !cov.complete || school.StageCompleted(cov.stage) {
			continue
		}
		// Flags are monotonic within a round: coverage can only raise
		// them, never lower them.
		switch cov.stage {
		case models.StageInspire:
			state.InspireCompleted = true
		case models.StageInvestigate:
			state.InvestigateCompleted = true
		case models.StageAct:
			state.ActCompleted = true
		}
		newlyCompleted = append(newlyCompleted, cov.stage)
	}

	roundCompleted := false
	if state.InspireCompleted && state.InvestigateCompleted && state.ActCompleted {
		if err := s.completeRound(ctx, school); err != nil {
			return err
		}
		roundCompleted = true
		if s.cfg.AutoAdvanceRound {
			state.CurrentRound = school.CurrentRound + 1
			state.InspireCompleted = false
			state.InvestigateCompleted = false
			state.ActCompleted = false
		}
	}

	state.ProgressPercentage = progressPercentage(state)

	if state == (models.ProgressionState{
		CurrentRound:         school.CurrentRound,
		InspireCompleted:     school.InspireCompleted,
		InvestigateCompleted: school.InvestigateCompleted,
		ActCompleted:         school.ActCompleted,
		ProgressPercentage:   school.ProgressPercentage,
	}) {
		return nil
	}

	if err := s.schools.UpdateProgression(ctx, schoolID, state); err != nil {
		return fmt.Errorf("update school progression: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, schoolID); err != nil {
			s.logger.Warn("failed to invalidate progression snapshot", zap.String("school_id", schoolID), zap.Error(err))
		}
	}

	for _, stage := range newlyCompleted {
		if s.metrics != nil {
			s.metrics.IncStageComplete(string(stage))
		}
		if s.notifier != nil {
			s.notifier.SendStageCelebration(ctx, school, stage)
		}
	}
	if roundCompleted {
		if s.metrics != nil {
			s.metrics.IncRoundComplete()
		}
		if s.notifier != nil {
			s.notifier.SendRoundCelebration(ctx, school, school.CurrentRound)
		}
	}
	return nil
}

// completeRound makes sure a certificate exists for the finished round and
// records the completion in the audit trail.
func (s *ProgressionService) completeRound(ctx context.Context, school *models.School) error {
	existing, err := s.certificates.FindBySchoolRound(ctx, school.ID, school.CurrentRound)
	if err != nil {
		return fmt.Errorf("check certificate: %w", err)
	}
	if existing != nil {
		return nil
	}

	stages := make([]string, 0, len(models.RequiredStages))
	for _, stage := range models.RequiredStages {
		stages = append(stages, string(stage))
	}
	pdf, err := s.renderer.Render(export.CertificateData{
		SchoolName:  school.Name,
		Round:       school.CurrentRound,
		CompletedAt: nowUTC(),
		Stages:      stages,
	})
	if err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	filename := fmt.Sprintf("certificate_%s_round_%d.pdf", school.ID, school.CurrentRound)
	if _, err := s.files.Save(filename, pdf); err != nil {
		return fmt.Errorf("store certificate: %w", err)
	}
	if err := s.certificates.Create(ctx, &models.Certificate{
		SchoolID:    school.ID,
		Round:       school.CurrentRound,
		FilePath:    filename,
		GeneratedAt: nowUTC(),
	}); err != nil {
		return fmt.Errorf("record certificate: %w", err)
	}

	if s.audit != nil {
		payload, _ := json.Marshal(map[string]interface{}{"round": school.CurrentRound})
		err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			Action:     models.AuditActionRoundComplete,
			Resource:   "school",
			ResourceID: &school.ID,
			NewValues:  payload,
		})
		if err != nil {
			s.logger.Warn("failed to record round completion audit log", zap.String("school_id", school.ID), zap.Error(err))
		}
	}
	return nil
}

// progressPercentage expresses overall program progress across rounds: a
// school entering round N has fully completed N-1 rounds of three stages.
// The denominator scales with the current round, so the value drops when a
// round completes and the next one opens (e.g. two stages of round 1 is 67%,
// entering round 2 resets to 50%). Clients should treat it as progress
// within the program so far, not a monotonically increasing figure.
func progressPercentage(state models.ProgressionState) int {
	completed := 0
	if state.InspireCompleted {
		completed++
	}
	if state.InvestigateCompleted {
		completed++
	}
	if state.ActCompleted {
		completed++
	}
	done := (state.CurrentRound-1)*len(models.RequiredStages) + completed
	total := state.CurrentRound * len(models.RequiredStages)
	if total <= 0 {
		return 0
	}
	pct := float64(done) / float64(total) * 100
	return int(pct + 0.5)
}

// Snapshot builds the per-stage progression read model, served from the
// cache when a fresh copy exists.
func (s *ProgressionService) Snapshot(ctx context.Context, schoolID string) (*dto.ProgressionSnapshot, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, schoolID)
		if err != nil {
			s.logger.Warn("progression snapshot cache read failed", zap.String("school_id", schoolID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	school, err := s.schools.FindByID(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	coverage, err := s.coverage(ctx, schoolID, school.CurrentRound)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute progression")
	}

	snapshot := &dto.ProgressionSnapshot{
		SchoolID:           school.ID,
		CurrentRound:       school.CurrentRound,
		ProgressPercentage: school.ProgressPercentage,
		Stages:             make([]dto.StageProgress, 0, len(coverage)),
		GeneratedAt:        nowUTC(),
	}
	for _, cov := range coverage {
		snapshot.Stages = append(snapshot.Stages, dto.StageProgress{
			Stage:                 string(cov.stage),
			Completed:             school.StageCompleted(cov.stage) || cov.complete,
			RequirementCount:      cov.total,
			SatisfiedRequirements: cov.satisfied,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshot); err != nil {
			s.logger.Warn("progression snapshot cache write failed", zap.String("school_id", schoolID), zap.Error(err))
		}
	}
	return snapshot, nil
}
