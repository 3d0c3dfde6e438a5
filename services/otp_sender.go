package services

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/yeremiapane/tableside/utils"
)

// OTPSender delivers a one-time code to a phone number.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// TwilioSender sends codes as SMS through the Twilio messaging API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}, nil
}

func (t *TwilioSender) SendOTP(ctx context.Context, phone, code string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(phone)
	params.SetBody(fmt.Sprintf("Your table verification code is %s", code))

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		utils.ErrorLogger.Errorf("Failed to send OTP SMS: %v", err)
		return fmt.Errorf("failed to send verification code: %w", err)
	}
	if resp.Sid != nil {
		utils.InfoLogger.Infof("OTP SMS sent, SID: %s", *resp.Sid)
	}
	return nil
}

// LogSender writes codes to the info log. Used when no SMS provider is configured.
type LogSender struct{}

func (LogSender) SendOTP(_ context.Context, phone, code string) error {
	utils.InfoLogger.Warnf("SMS provider not configured; OTP for %s is %s", phone, code)
	return nil
}
