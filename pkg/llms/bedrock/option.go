package bedrock

import (
	"github.com/effective-security/searchagent/pkg/llms/bedrock/internal/bedrockclient"
)

// InvokeModelAPI is the subset of the Bedrock runtime client used to call models.
type InvokeModelAPI = bedrockclient.InvokeModelAPI

// Option is an option for the Bedrock LLM.
type Option func(*options)

type options struct {
	modelID   string
	region    string
	accessKey string
	secretKey string
	client    InvokeModelAPI
}

// WithModel allows setting a custom model ID, such as
// "us.anthropic.claude-3-5-sonnet-20241022-v2:0".
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithRegion sets the AWS region. If not set, the default AWS config chain is used.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithCredentials sets static AWS credentials.
// If not set, the default AWS credentials chain is used.
func WithCredentials(accessKey, secretKey string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
	}
}

// WithClient allows setting a custom Bedrock runtime client.
func WithClient(client InvokeModelAPI) Option {
	return func(o *options) {
		o.client = client
	}
}
