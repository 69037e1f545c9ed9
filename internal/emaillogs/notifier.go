package emaillogs

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akoun-dev/panelevent/internal/models"
	"github.com/akoun-dev/panelevent/pkg/queue"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`<p>Hello {{.FirstName}},</p>
<p>You are registered for <strong>{{.Title}}</strong>{{if .Start}} on {{.Start}}{{end}}.</p>
<p>See you there.</p>`))

// LogStore records email logs.
type LogStore interface {
	Create(ctx context.Context, el *models.EmailLog) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// Enqueuer hands email jobs to the worker.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// ConfirmationNotifier logs and enqueues a confirmation email for each registration.
type ConfirmationNotifier struct {
	logs   LogStore
	queue  Enqueuer
	logger *zap.Logger
}

// NewConfirmationNotifier creates a notifier.
func NewConfirmationNotifier(logs LogStore, q Enqueuer, logger *zap.Logger) *ConfirmationNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationNotifier{logs: logs, queue: q, logger: logger}
}

// RegistrationConfirmed records a pending confirmation email and enqueues it.
func (n *ConfirmationNotifier) RegistrationConfirmed(ctx context.Context, e *models.Event, reg *models.EventRegistration) error {
	body, err := renderConfirmation(e, reg)
	if err != nil {
		return err
	}
	regID := reg.ID
	el := &models.EmailLog{
		EventID:        e.ID,
		RegistrationID: &regID,
		EmailType:      models.EmailTypeRegistrationConfirmation,
		RecipientEmail: reg.Email,
		Subject:        "Registration confirmed: " + e.Title,
		Status:         models.EmailLogStatusPending,
	}
	if err := n.logs.Create(ctx, el); err != nil {
		return fmt.Errorf("create email log: %w", err)
	}
	err = n.queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailLogID:     el.ID,
		EmailType:      el.EmailType,
		EventID:        e.ID,
		RegistrationID: reg.ID,
		RecipientEmail: reg.Email,
		Subject:        el.Subject,
		BodyHTML:       body,
	})
	if err != nil {
		if mErr := n.logs.MarkFailed(ctx, el.ID, "enqueue: "+err.Error()); mErr != nil {
			n.logger.Warn("mark email log failed", zap.Error(mErr), zap.String("email_log_id", el.ID.String()))
		}
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

func renderConfirmation(e *models.Event, reg *models.EventRegistration) (string, error) {
	data := struct {
		FirstName string
		Title     string
		Start     string
	}{FirstName: reg.FirstName, Title: e.Title}
	if !e.StartDate.IsZero() {
		data.Start = e.StartDate.Format("Monday, January 2, 2006 15:04 MST")
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}
