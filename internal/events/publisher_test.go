package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

type fakeSQS struct {
	err   error
	input *sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func bookedEvent() AppointmentBookedV1 {
	return NewAppointmentBooked("sess-1", ledger.Appointment{
		ID:       4,
		Patient:  ledger.Patient{Name: "alice wong", Email: "alice@example.com"},
		Doctor:   directory.Default().Doctors()[1],
		Day:      "Thursday",
		Time:     "2:00 PM",
		BookedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	})
}

func TestNewAppointmentBooked(t *testing.T) {
	evt := bookedEvent()
	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, TypeAppointmentBooked, evt.Type)
	assert.Equal(t, int64(4), evt.AppointmentID)
	assert.Equal(t, 2, evt.DoctorID)
	assert.Equal(t, "Heart Center - Westside", evt.Location)
}

func TestSQSPublisherSendsJSON(t *testing.T) {
	fake := &fakeSQS{}
	p := newSQSPublisher(fake, "http://localhost:4566/000000000000/bookings", logging.NewWithWriter(io.Discard, "error"))

	evt := bookedEvent()
	require.NoError(t, p.PublishAppointmentBooked(context.Background(), evt))

	require.NotNil(t, fake.input)
	assert.Equal(t, "http://localhost:4566/000000000000/bookings", aws.ToString(fake.input.QueueUrl))
	assert.Equal(t, TypeAppointmentBooked, aws.ToString(fake.input.MessageAttributes["event_type"].StringValue))

	var decoded AppointmentBookedV1
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(fake.input.MessageBody)), &decoded))
	assert.Equal(t, evt, decoded)
}

func TestSQSPublisherError(t *testing.T) {
	p := newSQSPublisher(&fakeSQS{err: errors.New("unavailable")}, "q", nil)
	err := p.PublishAppointmentBooked(context.Background(), bookedEvent())
	assert.ErrorContains(t, err, "failed to send SQS message")
}

func TestSQSPublisherRequiresQueueURL(t *testing.T) {
	assert.Panics(t, func() { newSQSPublisher(&fakeSQS{}, "", nil) })
	assert.Panics(t, func() { NewSQSPublisher(nil, "q", nil) })
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, NewLogPublisher(nil).PublishAppointmentBooked(context.Background(), bookedEvent()))
}
