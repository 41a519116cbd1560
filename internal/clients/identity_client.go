package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/circuitbreaker"
	"github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
	"github.com/vaidashi/catering-api/pkg/retry"
)

// IdentityClient reads role definitions from the identity service
type IdentityClient struct {
	baseURL     string
	httpClient  *http.Client
	logger      logger.Logger
	retryConfig *retry.RetryConfig
	breaker     *circuitbreaker.CircuitBreaker
}

// IdentityClientOption configures an IdentityClient
type IdentityClientOption func(*IdentityClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) IdentityClientOption {
	return func(ic *IdentityClient) {
		ic.httpClient = c
	}
}

// WithRetryConfig replaces the default retry policy
func WithRetryConfig(cfg *retry.RetryConfig) IdentityClientOption {
	return func(ic *IdentityClient) {
		ic.retryConfig = cfg
	}
}

// NewIdentityClient creates a new IdentityClient guarded by breaker
func NewIdentityClient(baseURL string, breaker *circuitbreaker.CircuitBreaker, logger logger.Logger, opts ...IdentityClientOption) *IdentityClient {
	c := &IdentityClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger:  logger,
		breaker: breaker,
		retryConfig: &retry.RetryConfig{
			MaxAttempts: 3,
			BackoffStrategy: &retry.ExponentialBackoff{
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      1.5,
				JitterFactor:    0.2,
			},
			Logger: logger,
			RetryableErrors: []error{
				errors.ErrTimeout,
				errors.ErrTemporaryFailure,
				errors.ErrServiceUnavailable,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// rolesPageSize matches the identity service's default page limit
const rolesPageSize = 100

// FetchRoles lists every role with its permissions, following the paged role list
func (c *IdentityClient) FetchRoles(ctx context.Context) ([]models.RoleDefinition, error) {
	var roles []models.RoleDefinition

	for skip := 0; ; skip += rolesPageSize {
		page, err := c.fetchRolePage(ctx, skip)

		if err != nil {
			return nil, err
		}

		roles = append(roles, page.Items...)
		if len(page.Items) == 0 || len(roles) >= page.Total {
			break
		}
	}

	return roles, nil
}

func (c *IdentityClient) fetchRolePage(ctx context.Context, skip int) (*models.RoleList, error) {
	url := fmt.Sprintf("%s/api/v1/roles?skip=%d&limit=%d", c.baseURL, skip, rolesPageSize)

	var page models.RoleList

	retryFunc := func() error {
		if c.breaker != nil && !c.breaker.Allow() {
			return errors.NewAppError(circuitbreaker.ErrOpen, "identity service circuit is open", http.StatusServiceUnavailable, false)
		}

		body, err := c.get(ctx, url)

		if err != nil {
			if c.breaker != nil && errors.IsRetryable(err) {
				c.breaker.Failure()
			}
			return err
		}

		if c.breaker != nil {
			c.breaker.Success()
		}

		page = models.RoleList{}
		if err := json.Unmarshal(body, &page); err != nil {
			return errors.NewInternalError(fmt.Sprintf("failed to parse roles response: %v", err))
		}

		return nil
	}

	err := retry.Retry(ctx, retryFunc, c.retryConfig)

	if err != nil {
		c.logger.Error("Failed to fetch roles after retries",
			"error", err,
			"url", url)
		return nil, err
	}

	return &page, nil
}

func (c *IdentityClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to create request: %v", err))
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)

	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, errors.NewTimeoutError("identity request timed out")
		}
		return nil, errors.NewTemporaryError(fmt.Sprintf("failed to send request: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)

	if err != nil {
		return nil, errors.NewTemporaryError(fmt.Sprintf("failed to read response body: %v", err))
	}

	if resp.StatusCode >= 400 {
		switch resp.StatusCode {
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return nil, errors.NewTimeoutError("identity request timed out")
		case http.StatusServiceUnavailable, http.StatusInternalServerError, http.StatusBadGateway:
			return nil, errors.NewTemporaryError(fmt.Sprintf("identity service error: %d", resp.StatusCode))
		}

		return nil, errors.NewAppError(
			errors.ErrInternal,
			fmt.Sprintf("identity service returned error: %d", resp.StatusCode),
			resp.StatusCode,
			false,
		)
	}

	return body, nil
}
