package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/document/models"
	"onboarding/internal/document/ports"
	presenceports "onboarding/internal/presence/ports"
	"onboarding/internal/providers"
	"onboarding/internal/providers/contract"
	id "onboarding/pkg/domain"
)

func owner(t *testing.T, activation string) id.OwnerID {
	t.Helper()
	o, err := id.NewOwnerID("user-1", id.ActivationID(activation))
	require.NoError(t, err)
	return o
}

func TestDocumentProviderContract(t *testing.T) {
	for _, polls := range []int{0, 2} {
		suite := &contract.DocumentSuite{
			Provider: NewDocumentProvider(polls),
			Owner:    owner(t, "act-1"),
			MaxPolls: polls,
		}
		suite.Run(t)
	}
}

func TestPresenceProviderContract(t *testing.T) {
	suite := &contract.PresenceSuite{
		Provider: NewPresenceProvider(1),
		Owner:    owner(t, "act-1"),
		Photo:    []byte("portrait"),
		MaxPolls: 1,
	}
	suite.Run(t)
}

func TestDocumentProviderOutcomes(t *testing.T) {
	ctx := context.Background()
	p := NewDocumentProvider(0)
	o := owner(t, "act-1")

	receipts, err := p.SubmitDocuments(ctx, o, []ports.Upload{
		{Ref: "a", Type: models.TypePassport, Filename: "Reject-me.jpg"},
		{Ref: "b", Type: models.TypePassport, Filename: "fail.jpg"},
		{Ref: "c", Type: models.TypeDrivingLicense, Filename: "forged.jpg"},
	})
	require.NoError(t, err)

	verdict, err := p.CheckDocumentUpload(ctx, o, receipts[0].UploadID)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeRejected, verdict.Outcome)
	assert.Equal(t, []string{"UNREADABLE"}, verdict.Errors)

	verdict, err = p.CheckDocumentUpload(ctx, o, receipts[1].UploadID)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeFailed, verdict.Outcome)

	verdict, err = p.CheckDocumentUpload(ctx, o, receipts[2].UploadID)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeAccepted, verdict.Outcome)

	handle, err := p.VerifyDocuments(ctx, o, []string{receipts[2].UploadID})
	require.NoError(t, err)
	result, err := p.GetVerificationResult(ctx, o, handle.ID)
	require.NoError(t, err)
	require.Len(t, result.Verdicts, 1)
	assert.Equal(t, ports.OutcomeRejected, result.Verdicts[0].Outcome)
}

func TestProviderErrors(t *testing.T) {
	docs := NewDocumentProvider(0)
	presence := NewPresenceProvider(0)
	o := owner(t, "act-1")

	cases := []contract.ErrorCase{
		{
			Name:          "unknown upload",
			Call:          func(ctx context.Context) error { _, err := docs.CheckDocumentUpload(ctx, o, "nope"); return err },
			ExpectedError: providers.ErrorNotFound,
		},
		{
			Name:          "unknown verification",
			Call:          func(ctx context.Context) error { _, err := docs.GetVerificationResult(ctx, o, "nope"); return err },
			ExpectedError: providers.ErrorNotFound,
		},
		{
			Name:          "unknown photo",
			Call:          func(ctx context.Context) error { _, err := docs.GetPhoto(ctx, "nope"); return err },
			ExpectedError: providers.ErrorNotFound,
		},
		{
			Name:          "presence start without init",
			Call:          func(ctx context.Context) error { _, err := presence.StartPresenceCheck(ctx, o); return err },
			ExpectedError: providers.ErrorBadData,
		},
		{
			Name: "presence result for another session",
			Call: func(ctx context.Context) error {
				_, err := presence.GetResult(ctx, o, presenceports.SessionInfo{SessionID: "other"})
				return err
			},
			ExpectedError: providers.ErrorNotFound,
		},
	}
	for _, c := range cases {
		t.Run(c.Name, c.Run)
	}
}

func TestUploadsAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	p := NewDocumentProvider(0)

	receipts, err := p.SubmitDocuments(ctx, owner(t, "act-1"), []ports.Upload{{Ref: "a", Type: models.TypePassport}})
	require.NoError(t, err)

	_, err = p.CheckDocumentUpload(ctx, owner(t, "act-2"), receipts[0].UploadID)
	assert.Equal(t, providers.ErrorNotFound, providers.GetCategory(err))
}
