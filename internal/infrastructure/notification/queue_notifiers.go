// Package notification implements the channel notifiers. They do not deliver
// anything themselves: each publishes a job to the notification queue and the
// notify worker handles rendering and delivery. Queueing keeps store calls
// and third-party delivery APIs out of the request path.
package notification

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/idstack/identity-service/internal/application"
	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/pkg/helpers"
	"github.com/idstack/identity-service/pkg/notify"
)

// QueueNotifier publishes delivery jobs to RabbitMQ. It backs all three
// notifier contracts.
type QueueNotifier struct {
	Pub    *helpers.RabbitPublisher
	Logger *logrus.Logger
}

func NewQueueNotifier(pub *helpers.RabbitPublisher, logger *logrus.Logger) *QueueNotifier {
	return &QueueNotifier{Pub: pub, Logger: logger}
}

func (n *QueueNotifier) publish(ctx context.Context, job notify.Job) error {
	if err := n.Pub.PublishJSON(ctx, job); err != nil {
		if n.Logger != nil {
			n.Logger.WithError(err).WithFields(logrus.Fields{
				"channel": job.Channel,
				"kind":    job.Kind,
			}).Warn("failed to enqueue notification")
		}
		return err
	}
	return nil
}

// Email returns the notifier view used for email deliveries.
func (n *QueueNotifier) Email() application.EmailNotifier { return (*emailNotifier)(n) }

// SMS returns the notifier view used for SMS deliveries.
func (n *QueueNotifier) SMS() application.SmsNotifier { return (*smsNotifier)(n) }

// Chat returns the notifier view used for telegram deliveries.
func (n *QueueNotifier) Chat() application.ChatNotifier { return (*chatNotifier)(n) }

type emailNotifier QueueNotifier

func (n *emailNotifier) SendVerificationCode(ctx context.Context, to entity.Email, code entity.CodeValue) error {
	return (*QueueNotifier)(n).publish(ctx, notify.Job{
		Channel: notify.ChannelEmail,
		Kind:    notify.KindVerification,
		To:      to.String(),
		Code:    code.String(),
	})
}

func (n *emailNotifier) SendPasswordResetCode(ctx context.Context, to entity.Email, code entity.CodeValue) error {
	return (*QueueNotifier)(n).publish(ctx, notify.Job{
		Channel: notify.ChannelEmail,
		Kind:    notify.KindPasswordReset,
		To:      to.String(),
		Code:    code.String(),
	})
}

type smsNotifier QueueNotifier

func (n *smsNotifier) SendVerificationCode(ctx context.Context, to entity.Phone, code entity.CodeValue) error {
	return (*QueueNotifier)(n).publish(ctx, notify.Job{
		Channel: notify.ChannelSMS,
		Kind:    notify.KindVerification,
		To:      to.String(),
		Code:    code.String(),
	})
}

type chatNotifier QueueNotifier

func (n *chatNotifier) SendVerificationCode(ctx context.Context, to entity.TelegramID, code entity.CodeValue) error {
	return (*QueueNotifier)(n).publish(ctx, notify.Job{
		Channel: notify.ChannelTelegram,
		Kind:    notify.KindVerification,
		To:      to.String(),
		Code:    code.String(),
	})
}
