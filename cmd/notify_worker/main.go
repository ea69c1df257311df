package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	tele "gopkg.in/telebot.v3"

	"github.com/idstack/identity-service/config"
	"github.com/idstack/identity-service/pkg/helpers"
	"github.com/idstack/identity-service/pkg/mailer"
	"github.com/idstack/identity-service/pkg/notify"
)

// sender delivers a notification job over its channel.
type sender struct {
	mg  *mailer.Mailgun
	bot *tele.Bot
}

func main() {
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-worker", cfg.Env)

	if !cfg.NotifySendEnabled {
		log.Println("NOTIFY_SEND_ENABLED=false; notify worker disabled (jobs will stay queued)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.NotificationQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.NotificationQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.NotificationQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	s := &sender{mg: mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)}
	if cfg.TelegramBotToken != "" {
		bot, err := tele.NewBot(tele.Settings{Token: cfg.TelegramBotToken, Offline: false})
		if err != nil {
			log.Fatalf("telegram bot: %v", err)
		}
		s.bot = bot
	}

	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var job notify.Job
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				logger.WithError(err).Warn("bad message, dropping")
				_ = msg.Nack(false, false)
				continue
			}
			if err := s.deliver(ctx, job); err != nil {
				logger.WithError(err).WithField("channel", job.Channel).Error("delivery failed")
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	logger.Info("notify worker started")
	<-stop
	logger.Info("shutting down notify worker")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
	}
}

func (s *sender) deliver(ctx context.Context, job notify.Job) error {
	switch job.Channel {
	case notify.ChannelEmail:
		return s.sendEmail(ctx, job)
	case notify.ChannelTelegram:
		return s.sendTelegram(job)
	case notify.ChannelSMS:
		// No SMS provider wired; log-only delivery.
		log.Printf("sms to %s: your verification code is %s", job.To, job.Code)
		return nil
	default:
		return fmt.Errorf("unknown channel %q", job.Channel)
	}
}

func (s *sender) sendEmail(ctx context.Context, job notify.Job) error {
	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", job.Code)
	if job.Kind == notify.KindPasswordReset {
		subject = "Your password reset code"
		body = fmt.Sprintf("Your password reset code is %s. It expires in 30 minutes.", job.Code)
	}
	return s.mg.Send(ctx, job.To, subject, body, "")
}

func (s *sender) sendTelegram(job notify.Job) error {
	if s.bot == nil {
		return fmt.Errorf("telegram bot not configured")
	}
	chatID, err := strconv.ParseInt(job.To, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", job.To, err)
	}
	text := fmt.Sprintf("Your verification code is %s", job.Code)
	_, err = s.bot.Send(&tele.Chat{ID: chatID}, text)
	return err
}
