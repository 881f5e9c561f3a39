// Package mainconfig holds the AWS wiring shared by the binaries.
package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/vitalpoint-assistant/internal/config"
)

// bookingServices are the AWS services the booking side effects call: SES for
// confirmation emails and SQS for appointment.booked events.
var bookingServices = map[string]struct{}{
	sqs.ServiceID:   {},
	sesv2.ServiceID: {},
}

// LoadAWSConfig builds the SDK config for the email and event clients. Static
// keys win over the default chain when both are set, and AWS_ENDPOINT_OVERRIDE
// points SES and SQS at a local emulator such as LocalStack.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if hasStaticKeys(cfg) {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
		awsCfg.EndpointResolverWithOptions = localEndpoint(endpoint, cfg.AWSRegion)
	}
	return awsCfg, nil
}

func hasStaticKeys(cfg *appconfig.Config) bool {
	return strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != ""
}

// localEndpoint resolves only the booking services; anything else falls back
// to the SDK's normal resolution.
func localEndpoint(url, region string) aws.EndpointResolverWithOptions {
	return aws.EndpointResolverWithOptionsFunc(func(service, _ string, _ ...interface{}) (aws.Endpoint, error) {
		if _, ok := bookingServices[service]; !ok {
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}
		return aws.Endpoint{URL: url, PartitionID: "aws", SigningRegion: region}, nil
	})
}
