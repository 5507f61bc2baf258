package onboarding

//go:generate mockgen -source=hook.go -destination=mocks/mocks.go -package=mocks Provider,ActivationRemover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/requestcontext"
)

type HTTPClientSuite struct {
	suite.Suite
	server   *httptest.Server
	client   *HTTPClient
	handlers map[string]http.HandlerFunc
}

func TestHTTPClientSuite(t *testing.T) {
	suite.Run(t, new(HTTPClientSuite))
}

func (s *HTTPClientSuite) SetupTest() {
	s.handlers = map[string]http.HandlerFunc{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := s.handlers[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	s.client = NewHTTPClient(s.server.URL+"/", time.Second, nil)
}

func (s *HTTPClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *HTTPClientSuite) TestLookupUser() {
	s.Run("resolves user id", func() {
		s.handlers["/users/lookup"] = func(w http.ResponseWriter, r *http.Request) {
			var req LookupRequest
			s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
			s.Equal("+420123456789", req.Identifier)
			s.Equal("req-1", r.Header.Get("X-Request-ID"))
			_ = json.NewEncoder(w).Encode(map[string]string{"user_id": "user-42"})
		}
		ctx := requestcontext.WithRequestID(context.Background(), "req-1")
		userID, err := s.client.LookupUser(ctx, LookupRequest{Identifier: "+420123456789"})
		s.Require().NoError(err)
		s.Equal(id.UserID("user-42"), userID)
	})

	s.Run("empty user id is not found", func() {
		s.handlers["/users/lookup"] = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}
		_, err := s.client.LookupUser(context.Background(), LookupRequest{Identifier: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *HTTPClientSuite) TestStatusMapping() {
	s.handlers["/otp-codes"] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}
	s.handlers["/consents"] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}

	err := s.client.SendOtpCode(context.Background(), OtpDelivery{Code: "1234"})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	err = s.client.ApproveConsent(context.Background(), ConsentApproval{Consent: "terms"})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	err = s.client.ProcessEvent(context.Background(), Event{Type: EventProcessFinished})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *HTTPClientSuite) TestEvaluateClient() {
	s.handlers["/client-evaluations"] = func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("user-1", body["user_id"])
		s.Equal("act-1", body["activation_id"])
		_, _ = w.Write([]byte(`{"accepted":false,"reason":"sanctions"}`))
	}
	owner, err := id.NewOwnerID("user-1", "act-1")
	s.Require().NoError(err)

	result, err := s.client.EvaluateClient(context.Background(), owner, id.NewVerificationID())
	s.Require().NoError(err)
	s.False(result.Accepted)
	s.Equal("sanctions", result.Reason)
}

func (s *HTTPClientSuite) TestRemoveActivation() {
	var called bool
	s.handlers["/activations/remove"] = func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("proc-1", body["process_id"])
		s.Equal("user-1", body["user_id"])
		called = true
		w.WriteHeader(http.StatusNoContent)
	}
	s.Require().NoError(s.client.RemoveActivation(context.Background(), "proc-1", "user-1"))
	s.True(called)
}

type recordingPublisher struct {
	keys    []string
	headers []map[string]string
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.headers = append(p.headers, headers)
	return nil
}

func TestKafkaEventProvider(t *testing.T) {
	inner := NewLoggingProvider(slog.New(slog.DiscardHandler))

	t.Run("publishes keyed by process id", func(t *testing.T) {
		pub := &recordingPublisher{}
		p := NewKafkaEventProvider(inner, pub)
		processID := id.NewProcessID()
		require.NoError(t, p.ProcessEvent(context.Background(), Event{Type: EventProcessFailed, ProcessID: processID}))
		assert.Equal(t, []string{processID.String()}, pub.keys)
		assert.Equal(t, "PROCESS_FAILED", pub.headers[0]["event-type"])
	})

	t.Run("publish failure is returned", func(t *testing.T) {
		p := NewKafkaEventProvider(inner, &recordingPublisher{err: errors.New("broker down")})
		err := p.ProcessEvent(context.Background(), Event{Type: EventProcessFailed})
		assert.ErrorContains(t, err, "broker down")
	})

	t.Run("other methods pass through", func(t *testing.T) {
		p := NewKafkaEventProvider(inner, &recordingPublisher{})
		userID, err := p.LookupUser(context.Background(), LookupRequest{Identifier: " user-7 "})
		require.NoError(t, err)
		assert.Equal(t, id.UserID("user-7"), userID)
	})
}

type failingSink struct{}

func (failingSink) ProcessEvent(context.Context, Event) error { return errors.New("down") }

func TestEmitIsBestEffort(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	Emit(ctx, logger, failingSink{}, Event{Type: EventProcessFinished, ProcessID: "p-1", Status: "FINISHED"})

	assert.Contains(t, buf.String(), `"msg":"PROCESS_FINISHED"`)
	assert.Contains(t, buf.String(), "failed to deliver process event")
}

func TestMask(t *testing.T) {
	assert.Equal(t, "******78", mask("12345678"))
	assert.Equal(t, "**", mask("12"))
}
