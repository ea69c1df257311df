// Package notify defines the payload exchanged over the notification queue
// between the API process and the delivery worker.
package notify

// Channel selects the delivery transport.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelTelegram = "telegram"
)

// Kind tells the worker which message to render.
const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
)

// Job is one code delivery. To is the raw credential for the channel: an
// email address, an E.164 phone number, or a telegram chat id.
type Job struct {
	Channel string `json:"channel"`
	Kind    string `json:"kind"`
	To      string `json:"to"`
	Code    string `json:"code"`
}
