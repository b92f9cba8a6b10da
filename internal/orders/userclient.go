package orders

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"foodcourt/internal/logger"
	"foodcourt/pkg/circuitbreaker"
)

// ValidationResult is the users-service lookup contract. serviceDown and
// timeout let callers distinguish "no such user" from "could not ask".
type ValidationResult struct {
	Valid       bool   `json:"valid"`
	Error       string `json:"error,omitempty"`
	ServiceDown bool   `json:"serviceDown,omitempty"`
	Timeout     bool   `json:"timeout,omitempty"`
}

type userResponse struct {
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
}

// UserClient validates order owners against the users service over HTTP,
// guarded by a circuit breaker so a dead collaborator cannot stall order
// intake.
type UserClient struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Wrapper
	log     logger.Logger
}

func NewUserClient(baseURL string, timeout time.Duration, log logger.Logger) *UserClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &UserClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("users-service")),
		log:     log,
	}
}

func (c *UserClient) ValidateUser(ctx context.Context, userID string) ValidationResult {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.lookup(ctx, userID)
	})
	if err != nil {
		return c.classifyFailure(ctx, err)
	}
	return result.(ValidationResult)
}

func (c *UserClient) lookup(ctx context.Context, userID string) (ValidationResult, error) {
	url := fmt.Sprintf("%s/api/users/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ValidationResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ValidationResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ValidationResult{Valid: false, Error: "User not found"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return ValidationResult{}, fmt.Errorf("users-service returned status %d", resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ValidationResult{}, err
	}
	if body.User == nil {
		return ValidationResult{Valid: false, Error: "User not found"}, nil
	}
	return ValidationResult{Valid: true}, nil
}

func (c *UserClient) classifyFailure(ctx context.Context, err error) ValidationResult {
	var dnsErr *net.DNSError
	if stderrors.Is(err, syscall.ECONNREFUSED) || stderrors.As(err, &dnsErr) {
		c.log.ErrorwCtx(ctx, "Users service is not available", "error", err)
		return ValidationResult{
			Valid:       false,
			Error:       "User validation service unavailable",
			ServiceDown: true,
		}
	}

	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		c.log.ErrorwCtx(ctx, "Users service request timeout", "error", err)
		return ValidationResult{
			Valid:   false,
			Error:   "User validation timeout",
			Timeout: true,
		}
	}

	if c.breaker.IsOpen() {
		return ValidationResult{
			Valid:       false,
			Error:       "User validation service unavailable",
			ServiceDown: true,
		}
	}

	c.log.ErrorwCtx(ctx, "Users service lookup failed", "error", err)
	return ValidationResult{Valid: false, Error: err.Error()}
}
