package factory

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docports "onboarding/internal/document/ports"
	"onboarding/internal/platform/config"
	"onboarding/internal/presence"
	presenceports "onboarding/internal/presence/ports"
	"onboarding/internal/providers"
	"onboarding/internal/providers/contract"
	id "onboarding/pkg/domain"
)

type slowDocuments struct {
	docports.Provider
}

func (slowDocuments) Name() string { return "slow" }

func (slowDocuments) SubmitDocuments(ctx context.Context, _ id.OwnerID, _ []docports.Upload) ([]docports.Receipt, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestBuild(t *testing.T) {
	owner, err := id.NewOwnerID("user-1", "act-1")
	require.NoError(t, err)

	t.Run("mock providers satisfy the contract through instrumentation", func(t *testing.T) {
		metrics := providers.NewMetrics(prometheus.NewRegistry())
		set, err := NewRegistry().Build(config.ProvidersConfig{
			Document:        "mock",
			PresenceCheck:   "mock",
			MockPendingPoll: 1,
		}, providers.NewCaller(time.Second, providers.WithCallMetrics(metrics)))
		require.NoError(t, err)

		(&contract.DocumentSuite{Provider: set.Document, Owner: owner, MaxPolls: 1}).Run(t)
		(&contract.PresenceSuite{Provider: set.Presence, Owner: owner, Photo: []byte("portrait"), MaxPolls: 1}).Run(t)
		assert.Positive(t, testutil.CollectAndCount(metrics.CallDuration))
	})

	t.Run("disabled presence is not wrapped", func(t *testing.T) {
		set, err := NewRegistry().Build(config.ProvidersConfig{Document: "mock", PresenceCheck: "disabled"}, providers.NewCaller(time.Second))
		require.NoError(t, err)
		assert.IsType(t, presence.Disabled{}, set.Presence)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewRegistry().Build(config.ProvidersConfig{Document: "acme", PresenceCheck: "mock"}, providers.NewCaller(time.Second))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "acme")

		_, err = NewRegistry().Build(config.ProvidersConfig{Document: "mock", PresenceCheck: "acme"}, providers.NewCaller(time.Second))
		require.Error(t, err)
	})

	t.Run("timeouts surface as retryable provider errors", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.RegisterDocument("slow", func(config.ProvidersConfig) (docports.Provider, error) {
			return slowDocuments{}, nil
		}))
		set, err := r.Build(config.ProvidersConfig{Document: "slow", PresenceCheck: "disabled"}, providers.NewCaller(5*time.Millisecond))
		require.NoError(t, err)

		contract.ErrorCase{
			Name: "submit timeout",
			Call: func(ctx context.Context) error {
				_, err := set.Document.SubmitDocuments(ctx, owner, nil)
				return err
			},
			ExpectedError: providers.ErrorTimeout,
			ExpectedRetry: true,
		}.Run(t)
	})
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"mock"}, r.DocumentNames())
	assert.Equal(t, []string{"disabled", "mock"}, r.PresenceNames())

	err := r.RegisterDocument("mock", func(config.ProvidersConfig) (docports.Provider, error) { return nil, nil })
	require.Error(t, err)
	err = r.RegisterPresence("disabled", func(config.ProvidersConfig) (presenceports.Provider, error) { return nil, nil })
	require.Error(t, err)
}
