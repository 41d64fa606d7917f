package attendsdk

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/eas/pkg/slogx"
)

// DefaultTimeout bounds a single request when the caller's context has no deadline.
const DefaultTimeout = 10 * time.Second

// CredentialSource supplies the bearer credential attached to outgoing requests.
// An empty credential means the request is sent without an Authorization header.
type CredentialSource interface {
	Credential() string
}

// StaticCredential always returns the same credential.
type StaticCredential string

func (s StaticCredential) Credential() string { return string(s) }

// SDKClient is a client for the EAS attendance service.
// Every call returns a Result; expected failures never surface as panics.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// Credentials provides the stored credential, usually the auth controller.
	// Nil means every request is anonymous.
	Credentials CredentialSource
}

// NewSDKClient creates a client with a timeout-bounded HTTP client whose
// transport stamps request IDs and logs each call.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: &slogx.Transport{},
		},
	}
}

// credential returns the current credential, or "" when none is configured.
func (c *SDKClient) credential() string {
	if c.Credentials == nil {
		return ""
	}
	return c.Credentials.Credential()
}

// url builds a complete URL by appending the path to the base URL.
func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}
