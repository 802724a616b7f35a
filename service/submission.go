package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"singo-backend/constant"
	"singo-backend/dto"
	"singo-backend/pkg/rabbitmq"
	"singo-backend/pkg/scoring"
	"singo-backend/repository"
)

// StageError marks which pipeline stage a submission failed in. The HTTP
// layer maps stages to status codes.
type StageError struct {
	Stage constant.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage constant.Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// Scorer is the comparison call of the external scoring service.
type Scorer interface {
	Compare(ctx context.Context, originalSongPath, userSongPath string) (*scoring.Result, error)
}

type SubmissionInput struct {
	UserID    uint
	VersionID uint
	Key       *string
	RawAudio  []byte
	// ReferenceOverride substitutes the version's reference vocal path when
	// the client supplies one ("ori" form field).
	ReferenceOverride string
}

type SubmissionService interface {
	Submit(ctx context.Context, in SubmissionInput) (*dto.SubmissionData, error)
	Compare(ctx context.Context, recordID, versionID uint) (*scoring.Result, error)
}

type submissionService struct {
	repo       repository.Repository
	transcoder *Transcoder
	scorer     Scorer
	publisher  rabbitmq.Publisher
}

// NewSubmissionService wires the pipeline. publisher may be nil; reconcile
// messages are then dropped after logging.
func NewSubmissionService(repo repository.Repository, transcoder *Transcoder, scorer Scorer, publisher rabbitmq.Publisher) SubmissionService {
	return &submissionService{
		repo:       repo,
		transcoder: transcoder,
		scorer:     scorer,
		publisher:  publisher,
	}
}

// Submit runs one take through transcode, record, score and persist. The
// recording row survives a scoring failure on purpose: losing the user's take
// is worse than a temporarily unscored row.
func (s *submissionService) Submit(ctx context.Context, in SubmissionInput) (*dto.SubmissionData, error) {
	if in.UserID == 0 {
		return nil, stageErr(constant.StageValidate, errors.New("missing userId"))
	}
	if in.VersionID == 0 {
		return nil, stageErr(constant.StageValidate, errors.New("missing versionId"))
	}
	if len(in.RawAudio) == 0 {
		return nil, stageErr(constant.StageValidate, errors.New("missing file"))
	}

	audioPath, err := s.transcoder.Transcode(ctx, in.RawAudio, in.UserID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("user_id", in.UserID).Msg("transcode failed")
		return nil, stageErr(constant.StageTranscode, err)
	}

	recording, err := s.repo.CreateRecording(ctx, in.UserID, in.VersionID, in.Key, audioPath)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Uint("user_id", in.UserID).Msg("failed to create recording")
		return nil, stageErr(constant.StageRecord, err)
	}

	referencePath := in.ReferenceOverride
	if referencePath == "" {
		version, err := s.repo.FindVersionByID(ctx, in.VersionID)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Uint("record_id", recording.RecordID).
				Uint("version_id", in.VersionID).
				Msg("failed to resolve reference vocal, recording kept unscored")
			return nil, stageErr(constant.StageScoring, err)
		}
		referencePath = version.OriPath
	}

	result, err := s.scorer.Compare(ctx, referencePath, audioPath)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Uint("record_id", recording.RecordID).
			Msg("scoring failed, recording kept unscored")
		return nil, stageErr(constant.StageScoring, err)
	}

	s.persistVerdict(ctx, recording.RecordID, result)

	return &dto.SubmissionData{
		RecordID:    recording.RecordID,
		FilePath:    audioPath,
		Score:       result.FinalScore,
		QualityTier: result.QualityTier,
		Message:     result.Message,
		Mistakes:    roundMistakes(result.Mistakes),
	}, nil
}

// persistVerdict writes the score and the mistakes as two independent,
// best-effort writes. A score write that fails after a successful comparison
// is queued for reconciliation; it never fails the submission.
func (s *submissionService) persistVerdict(ctx context.Context, recordID uint, result *scoring.Result) {
	if err := s.repo.UpdateScore(ctx, recordID, result.FinalScore); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Uint("record_id", recordID).
			Float64("attempted_score", result.FinalScore).
			Msg("failed to persist score, queueing reconcile")
		s.queueReconcile(ctx, dto.ReconcileMessage{RecordID: recordID, Score: result.FinalScore})
	}

	if _, err := s.repo.CreateMistakes(ctx, recordID, result.Mistakes); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Uint("record_id", recordID).
			Int("mistakes", len(result.Mistakes)).
			Msg("failed to persist mistakes")
	}
}

func (s *submissionService) queueReconcile(ctx context.Context, msg dto.ReconcileMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReconcile(ctx, msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Uint("record_id", msg.RecordID).
			Float64("attempted_score", msg.Score).
			Msg("failed to publish reconcile message")
	}
}

// Compare re-runs the comparison for an existing recording against a version's
// reference vocal. Nothing is persisted.
func (s *submissionService) Compare(ctx context.Context, recordID, versionID uint) (*scoring.Result, error) {
	version, err := s.repo.FindVersionByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	recording, err := s.repo.FindRecordingByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	result, err := s.scorer.Compare(ctx, version.OriPath, recording.UserAudioPath)
	if err != nil {
		return nil, err
	}
	result.Mistakes = roundMistakes(result.Mistakes)
	return result, nil
}

// roundMistakes normalizes pitch deviations the same way the store does, so
// the response body matches what a later read returns.
func roundMistakes(mistakes []dto.Mistake) []dto.Mistake {
	out := make([]dto.Mistake, 0, len(mistakes))
	for _, m := range mistakes {
		if math.IsNaN(m.PitchDiff) || math.IsInf(m.PitchDiff, 0) {
			continue
		}
		m.PitchDiff = math.Round(math.Abs(m.PitchDiff))
		out = append(out, m)
	}
	return out
}
