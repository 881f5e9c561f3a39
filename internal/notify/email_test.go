package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

type fakeSendGrid struct {
	status int
	err    error
	got    *mail.SGMailV3
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.got = email
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

type fakeSES struct {
	err error
	got *sesv2.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSendGridSenderNilWithoutAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "clinic@example.com"}, nil))
}

func TestNewSendGridSenderDefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "clinic@example.com"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, DefaultFromName, sender.fromName)
}

func TestSendGridSenderSend(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	sender := newSendGridSender(fake, SendGridConfig{FromEmail: "clinic@example.com", FromName: "Lakeside"}, quietLogger())

	err := sender.Send(context.Background(), EmailMessage{To: "alice@example.com", ToName: "alice wong", Subject: "Hi", Body: "hello"})
	require.NoError(t, err)
	require.NotNil(t, fake.got)
	assert.Equal(t, "Hi", fake.got.Subject)
	assert.Equal(t, "clinic@example.com", fake.got.From.Address)
}

func TestSendGridSenderErrors(t *testing.T) {
	msg := EmailMessage{To: "alice@example.com", Subject: "Hi", Body: "hello"}

	err := newSendGridSender(&fakeSendGrid{status: 500}, SendGridConfig{}, quietLogger()).Send(context.Background(), msg)
	assert.ErrorContains(t, err, "status 500")

	err = newSendGridSender(&fakeSendGrid{err: errors.New("dial")}, SendGridConfig{}, quietLogger()).Send(context.Background(), msg)
	assert.ErrorContains(t, err, "sendgrid send failed")

	var nilSender *SendGridSender
	assert.Error(t, nilSender.Send(context.Background(), msg))
}

func TestSESSenderSend(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "clinic@example.com"}, quietLogger())

	err := sender.Send(context.Background(), EmailMessage{To: "alice@example.com", Subject: "Hi", Body: "hello", HTML: "<p>hello</p>"})
	require.NoError(t, err)
	require.NotNil(t, fake.got)
	assert.Equal(t, "VitalPoint Clinic <clinic@example.com>", aws.ToString(fake.got.FromEmailAddress))
	assert.Equal(t, []string{"alice@example.com"}, fake.got.Destination.ToAddresses)
	assert.Equal(t, "hello", aws.ToString(fake.got.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>hello</p>", aws.ToString(fake.got.Content.Simple.Body.Html.Data))
}

func TestSESSenderError(t *testing.T) {
	sender := newSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{}, quietLogger())
	err := sender.Send(context.Background(), EmailMessage{To: "alice@example.com"})
	assert.ErrorContains(t, err, "SES send failed")
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}

func TestStubEmailSenderRecords(t *testing.T) {
	stub := NewStubEmailSender(quietLogger())
	require.NoError(t, stub.Send(context.Background(), EmailMessage{To: "alice@example.com"}))
	sent := stub.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
}

func TestAppointmentConfirmation(t *testing.T) {
	doc := directory.Default().Doctors()[2]
	msg := AppointmentConfirmation("", ledger.Appointment{
		ID:      7,
		Patient: ledger.Patient{Name: "alice wong", Email: "alice@example.com"},
		Doctor:  doc,
		Day:     "Tuesday",
		Time:    "1:30 PM",
	})

	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Appointment confirmed: Dr. Mary Johnson, Tuesday at 1:30 PM", msg.Subject)
	assert.Contains(t, msg.Body, "Your appointment at VitalPoint Clinic is confirmed.")
	assert.Contains(t, msg.Body, "Appointment #7")
	assert.Contains(t, msg.Body, "Location: Children's Clinic - Eastside")
	assert.Contains(t, msg.HTML, "Children&#39;s Clinic - Eastside")
}
