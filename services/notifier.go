package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"salonpro-frontdesk/utils"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// Delivery is the provider's receipt for one message.
type Delivery struct {
	Channel    string
	ProviderID string
}

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) (Delivery, error)
}

// TwilioSender sends messages through Twilio. E.164 numbers go over WhatsApp
// when a WhatsApp sender is configured, everything else over SMS.
type TwilioSender struct {
	client       *twilio.RestClient
	from         string
	whatsAppFrom string
}

func NewTwilioSender(accountSID, authToken, from, whatsAppFrom string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from:         from,
		whatsAppFrom: whatsAppFrom,
	}
}

func (s *TwilioSender) Send(_ context.Context, to, body string) (Delivery, error) {
	to = utils.NormalizePhone(to)
	if to == "" {
		return Delivery{}, errors.New("recipient phone is empty")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)

	d := Delivery{Channel: ChannelSMS}
	if s.whatsAppFrom != "" && strings.HasPrefix(to, "+") {
		d.Channel = ChannelWhatsApp
		params.SetTo("whatsapp:" + to)
		params.SetFrom("whatsapp:" + s.whatsAppFrom)
	} else {
		params.SetTo(to)
		params.SetFrom(s.from)
	}

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return d, err
	}
	if resp.Sid != nil {
		d.ProviderID = *resp.Sid
	}
	return d, nil
}

// LogSender only logs messages. Used when Twilio is not configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, body string) (Delivery, error) {
	s.log.Info().Str("to", to).Str("body", body).Msg("message not sent, no provider configured")
	return Delivery{Channel: ChannelSMS}, nil
}

// SentMessage is one message captured by a RecordingSender.
type SentMessage struct {
	To   string
	Body string
}

// RecordingSender captures messages in memory and can be told to fail.
type RecordingSender struct {
	mu   sync.Mutex
	sent []SentMessage
	Err  error
}

func (s *RecordingSender) Send(_ context.Context, to, body string) (Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return Delivery{Channel: ChannelSMS}, s.Err
	}
	s.sent = append(s.sent, SentMessage{To: to, Body: body})
	return Delivery{Channel: ChannelSMS, ProviderID: "test"}, nil
}

func (s *RecordingSender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

// RenderTemplate fills the bracketed placeholders used by reminder templates.
func RenderTemplate(message string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "["+k+"]", v)
	}
	return strings.NewReplacer(pairs...).Replace(message)
}
