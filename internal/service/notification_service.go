package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greensteps/greensteps-api/internal/models"
	"github.com/greensteps/greensteps-api/pkg/config"
	"github.com/greensteps/greensteps-api/pkg/jobs"
	"github.com/greensteps/greensteps-api/pkg/mailer"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// NotificationService dispatches in-app notifications and outbound emails.
// Email delivery runs through an async worker queue; every method here is
// best-effort and never returns an error to the triggering operation.
type NotificationService struct {
	store  notificationStore
	sender mailer.Sender
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its dispatch queue.
func NewNotificationService(store notificationStore, sender mailer.Sender, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{store: store, sender: sender, logger: logger}
	svc.queue = jobs.NewQueue("notifications", svc.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		s.logger.Error("notification job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.sender.Send(ctx, msg)
}

func (s *NotificationService) enqueue(kind string, msg mailer.Message) bool {
	if msg.ToAddress == "" {
		return false
	}
	err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: kind, Payload: msg})
	if err != nil {
		s.logger.Warn("failed to enqueue email", zap.String("type", kind), zap.Error(err))
		return false
	}
	return true
}

// SendSubmissionConfirmation emails the submitter that their evidence arrived.
// Returns whether an email was queued.
func (s *NotificationService) SendSubmissionConfirmation(_ context.Context, ev *models.Evidence, recipientName, recipientEmail string) bool {
	return s.enqueue("submission_confirmation", mailer.Message{
		ToName:    recipientName,
		ToAddress: recipientEmail,
		Subject:   "We received your evidence",
		TextBody:  fmt.Sprintf("Thanks for submitting %q. Your evidence is now awaiting review.", ev.Title),
	})
}

// SendApprovalNotice emails the submitter about an approval.
func (s *NotificationService) SendApprovalNotice(_ context.Context, ev *models.Evidence, recipientName, recipientEmail, reviewerName string) bool {
	return s.enqueue("approval_notice", mailer.Message{
		ToName:    recipientName,
		ToAddress: recipientEmail,
		Subject:   "Your evidence was approved",
		TextBody:  fmt.Sprintf("%s approved your evidence %q. Great work!", reviewerName, ev.Title),
	})
}

// SendRejectionNotice emails the submitter about a rejection with the reviewer's notes.
func (s *NotificationService) SendRejectionNotice(_ context.Context, ev *models.Evidence, recipientName, recipientEmail, reviewerName, notes string) bool {
	return s.enqueue("rejection_notice", mailer.Message{
		ToName:    recipientName,
		ToAddress: recipientEmail,
		Subject:   "Your evidence needs changes",
		TextBody:  fmt.Sprintf("%s reviewed your evidence %q and could not approve it.\n\nNotes: %s", reviewerName, ev.Title, notes),
	})
}

// NotifyAssignee writes an in-app notification for a newly assigned reviewer.
func (s *NotificationService) NotifyAssignee(ctx context.Context, userID, evidenceID string) {
	err := s.store.Create(ctx, &models.Notification{
		UserID:     userID,
		Type:       models.NotificationAssigned,
		EvidenceID: &evidenceID,
		Message:    "An evidence item was assigned to you for review.",
	})
	if err != nil {
		s.logger.Warn("failed to record assignee notification", zap.String("user_id", userID), zap.Error(err))
	}
}

// SendStageCelebration records an in-app celebration and emails the school
// contact when a stage completes.
func (s *NotificationService) SendStageCelebration(ctx context.Context, school *models.School, stage models.Stage) {
	err := s.store.Create(ctx, &models.Notification{
		UserID:   school.ID,
		Type:     models.NotificationStageComplete,
		SchoolID: &school.ID,
		Message:  fmt.Sprintf("Stage %s completed for round %d.", stage, school.CurrentRound),
	})
	if err != nil {
		s.logger.Warn("failed to record stage celebration", zap.String("school_id", school.ID), zap.Error(err))
	}
	s.enqueue("stage_celebration", mailer.Message{
		ToName:    school.Name,
		ToAddress: school.ContactEmail,
		Subject:   fmt.Sprintf("Stage complete: %s", stage),
		TextBody:  fmt.Sprintf("Congratulations! %s has completed the %s stage of round %d.", school.Name, stage, school.CurrentRound),
	})
}

// SendRoundCelebration records an in-app celebration and emails the school
// contact when a full round completes.
func (s *NotificationService) SendRoundCelebration(ctx context.Context, school *models.School, round int) {
	err := s.store.Create(ctx, &models.Notification{
		UserID:   school.ID,
		Type:     models.NotificationRoundComplete,
		SchoolID: &school.ID,
		Message:  fmt.Sprintf("Round %d completed. Certificate available.", round),
	})
	if err != nil {
		s.logger.Warn("failed to record round celebration", zap.String("school_id", school.ID), zap.Error(err))
	}
	s.enqueue("round_celebration", mailer.Message{
		ToName:    school.Name,
		ToAddress: school.ContactEmail,
		Subject:   fmt.Sprintf("Round %d complete!", round),
		TextBody:  fmt.Sprintf("Congratulations! %s has completed round %d of the program. Your certificate is ready to download.", school.Name, round),
	})
}
