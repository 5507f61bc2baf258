package onboarding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/requestcontext"
)

// HTTPClient talks to the onboarding subsystem over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client rooted at baseURL. A nil client gets a
// default with the given timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *HTTPClient) SendOtpCode(ctx context.Context, delivery OtpDelivery) error {
	return c.post(ctx, "/otp-codes", delivery, nil)
}

func (c *HTTPClient) ApproveConsent(ctx context.Context, approval ConsentApproval) error {
	return c.post(ctx, "/consents", approval, nil)
}

func (c *HTTPClient) EvaluateClient(ctx context.Context, owner id.OwnerID, verificationID id.VerificationID) (ClientEvaluation, error) {
	body := struct {
		UserID         id.UserID         `json:"user_id"`
		ActivationID   id.ActivationID   `json:"activation_id"`
		VerificationID id.VerificationID `json:"verification_id"`
	}{owner.UserID(), owner.ActivationID(), verificationID}
	var result ClientEvaluation
	if err := c.post(ctx, "/client-evaluations", body, &result); err != nil {
		return ClientEvaluation{}, err
	}
	return result, nil
}

func (c *HTTPClient) LookupUser(ctx context.Context, req LookupRequest) (id.UserID, error) {
	var result struct {
		UserID id.UserID `json:"user_id"`
	}
	if err := c.post(ctx, "/users/lookup", req, &result); err != nil {
		return "", err
	}
	if result.UserID.IsNil() {
		return "", dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return result.UserID, nil
}

func (c *HTTPClient) ProcessEvent(ctx context.Context, event Event) error {
	return c.post(ctx, "/process-events", event, nil)
}

func (c *HTTPClient) RemoveActivation(ctx context.Context, processID id.ProcessID, userID id.UserID) error {
	body := struct {
		ProcessID id.ProcessID `json:"process_id"`
		UserID    id.UserID    `json:"user_id"`
	}{processID, userID}
	return c.post(ctx, "/activations/remove", body, nil)
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "onboarding hook timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "onboarding hook unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, "onboarding hook "+path+" returned not found")
	case resp.StatusCode >= 500:
		return dErrors.New(dErrors.CodeUnavailable, "onboarding hook "+path+" returned "+resp.Status)
	case resp.StatusCode >= 300:
		return dErrors.New(dErrors.CodeBadRequest, "onboarding hook "+path+" returned "+resp.Status)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
