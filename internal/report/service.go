package report

import (
	"context"
	"fmt"
	"time"

	"github.com/kiribu/money-tracker/internal/domain"
	ledgerservice "github.com/kiribu/money-tracker/internal/ledger/service"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"github.com/kiribu/money-tracker/internal/pkg/clock"
	"go.uber.org/zap"
)

type ReportSource interface {
	MonthlyReport(ctx context.Context, userID int64, year int, month time.Month) (*ledgerservice.MonthlyReport, error)
	PeriodReport(ctx context.Context, userID int64, period domain.Period, group domain.Bucket) (*ledgerservice.PeriodReport, error)
}

type UserSource interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	EnabledUsers(ctx context.Context) ([]*domain.User, error)
}

type EmailStore interface {
	CreateEmail(ctx context.Context, email *domain.Email) (*domain.Email, error)
	ListEmails(ctx context.Context, userID int64, limit int) ([]*domain.Email, error)
}

type Service struct {
	reports   ReportSource
	users     UserSource
	emails    EmailStore
	publisher Publisher
	renderer  *Renderer
	clock     clock.Clock
	logger    *zap.Logger
}

func NewService(reports ReportSource, users UserSource, emails EmailStore, publisher Publisher, clk clock.Clock, logger *zap.Logger) *Service {
	return &Service{
		reports:   reports,
		users:     users,
		emails:    emails,
		publisher: publisher,
		renderer:  NewRenderer(),
		clock:     clk,
		logger:    logger,
	}
}

// SendMonthlyReport renders the month's report for userID, publishes it and
// records the attempt. A publish failure is recorded as FAILED and is not an error.
func (s *Service) SendMonthlyReport(ctx context.Context, userID int64, year int, month time.Month) (*domain.Email, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rep, err := s.reports.MonthlyReport(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	subject, body, err := s.renderer.RenderMonthly(user, rep)
	if err != nil {
		s.logger.Error("failed to render report", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	email := &domain.Email{
		UserID:    userID,
		Subject:   subject,
		Body:      body,
		Status:    domain.EmailSent,
		SentAt:    &now,
		CreatedAt: now,
	}

	job := NewEmailJob(userID, user.Email, subject, body, now)
	if err := s.publisher.PublishEmail(ctx, job); err != nil {
		s.logger.Error("failed to publish report email",
			zap.Int64("user_id", userID),
			zap.String("job_id", job.ID),
			zap.Error(err))
		email.Status = domain.EmailFailed
		email.SentAt = nil
	}

	recorded, err := s.emails.CreateEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to record email", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to record email: %w", err)
	}
	return recorded, nil
}

// SendAll sends the given month's report to every enabled user and reports how
// many were published and how many failed.
func (s *Service) SendAll(ctx context.Context, year int, month time.Month) (sent, failed int, err error) {
	users, err := s.users.EnabledUsers(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sent, failed, err
		}
		email, err := s.SendMonthlyReport(ctx, u.ID, year, month)
		if err != nil || email.Status == domain.EmailFailed {
			failed++
			continue
		}
		sent++
	}

	s.logger.Info("Monthly reports dispatched",
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
	return sent, failed, nil
}

func (s *Service) Emails(ctx context.Context, userID int64, limit int) ([]*domain.Email, error) {
	if limit < 1 || limit > 100 {
		return nil, apperr.Validation("limit must be between 1 and 100")
	}
	emails, err := s.emails.ListEmails(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return emails, nil
}

// ExportPeriodReport returns the period report as an xlsx workbook.
func (s *Service) ExportPeriodReport(ctx context.Context, userID int64, period domain.Period, group domain.Bucket) ([]byte, *ledgerservice.PeriodReport, error) {
	rep, err := s.reports.PeriodReport(ctx, userID, period, group)
	if err != nil {
		return nil, nil, err
	}
	data, err := WritePeriodReport(rep)
	if err != nil {
		s.logger.Error("failed to export report", zap.Int64("user_id", userID), zap.Error(err))
		return nil, nil, err
	}
	return data, rep, nil
}

// PreviousMonth returns the calendar month before the one containing now.
func PreviousMonth(now time.Time) (int, time.Month) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), prev.Month()
}
