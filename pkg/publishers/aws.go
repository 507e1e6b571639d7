package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// loadAWSConfig resolves the default credential chain, overridden by static keys when both are set.
func loadAWSConfig(ctx context.Context, c AWSConfig) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(c.Region)}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// encodeEvent renders the JSON message body plus its non-empty string attributes.
func encodeEvent(evt Event) (string, map[string]string, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return "", nil, fmt.Errorf("marshal event: %w", err)
	}
	return string(body), stringAttributes(evt), nil
}

func stringAttributes(evt Event) map[string]string {
	out := make(map[string]string)
	for k, v := range evt.attributes() {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
