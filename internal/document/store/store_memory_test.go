package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"onboarding/internal/document/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
)

type InMemoryDocumentStoreSuite struct {
	suite.Suite
	store          *InMemoryStore
	ctx            context.Context
	now            time.Time
	verificationID id.VerificationID
}

func TestInMemoryDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDocumentStoreSuite))
}

func (s *InMemoryDocumentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	s.verificationID = id.NewVerificationID()
}

func (s *InMemoryDocumentStoreSuite) create(docType models.Type, side models.Side, at time.Time) *models.Document {
	d, err := models.NewDocument(id.NewDocumentID(), s.verificationID, "act-1", docType, side, "mock", "f.jpg", at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, d))
	return d
}

func (s *InMemoryDocumentStoreSuite) TestCreateAndFind() {
	d := s.create(models.TypePassport, models.SideNone, s.now)

	s.ErrorIs(s.store.Create(s.ctx, d), sentinel.ErrConflict)

	got, err := s.store.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(d.Type, got.Type)

	got.Status = models.StatusFailed
	again, err := s.store.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusUploadInProgress, again.Status)

	_, err = s.store.FindByID(s.ctx, id.NewDocumentID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryDocumentStoreSuite) TestListByVerificationIsOrdered() {
	second := s.create(models.TypePassport, models.SideNone, s.now.Add(time.Second))
	first := s.create(models.TypeDrivingLicense, models.SideNone, s.now)
	other, err := models.NewDocument(id.NewDocumentID(), id.NewVerificationID(), "act-2", models.TypePassport, models.SideNone, "mock", "f.jpg", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, other))

	docs, err := s.store.ListByVerification(s.ctx, s.verificationID)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(first.ID, docs[0].ID)
	s.Equal(second.ID, docs[1].ID)
}

func (s *InMemoryDocumentStoreSuite) TestUpdateStatusIsConditional() {
	d := s.create(models.TypePassport, models.SideNone, s.now)

	ok, err := s.store.UpdateStatus(s.ctx, d.ID, models.StatusVerificationPending, models.StatusChange{Status: models.StatusAccepted}, s.now)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.UpdateStatus(s.ctx, d.ID, models.StatusUploadInProgress, models.StatusChange{
		Status:       models.StatusRejected,
		RejectReason: "blurred",
		Errors:       []string{"GLARE"},
	}, s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.True(ok)

	got, err := s.store.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, got.Status)
	s.Equal("blurred", got.RejectReason)
	s.Equal([]string{"GLARE"}, got.Errors)
	s.Equal(s.now.Add(time.Minute), got.UpdatedAt)
}

func (s *InMemoryDocumentStoreSuite) TestSetOtherSideComparesPreviousLink() {
	front := s.create(models.TypeIDCard, models.SideFront, s.now)
	back := s.create(models.TypeIDCard, models.SideBack, s.now)

	ok, err := s.store.SetOtherSide(s.ctx, front.ID, "", back.ID, s.now)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.SetOtherSide(s.ctx, front.ID, "", back.ID, s.now)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.SetOtherSide(s.ctx, front.ID, back.ID, id.NewDocumentID(), s.now)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.store.UpdateStatus(s.ctx, back.ID, models.StatusUploadInProgress, models.StatusChange{Status: models.StatusDisposed}, s.now)
	s.Require().NoError(err)
	ok, err = s.store.SetOtherSide(s.ctx, back.ID, "", front.ID, s.now)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *InMemoryDocumentStoreSuite) TestResults() {
	d := s.create(models.TypePassport, models.SideNone, s.now)

	s.ErrorIs(s.store.AddResult(s.ctx, &models.Result{ID: "r0", DocumentID: id.NewDocumentID()}), sentinel.ErrNotFound)
	s.Require().NoError(s.store.AddResult(s.ctx, &models.Result{ID: "r1", DocumentID: d.ID, Phase: models.ResultPhaseUpload}))
	s.Require().NoError(s.store.AddResult(s.ctx, &models.Result{ID: "r2", DocumentID: d.ID, Phase: models.ResultPhaseVerification}))

	results, err := s.store.ListResults(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal(models.ResultPhaseUpload, results[0].Phase)
	s.Equal(models.ResultPhaseVerification, results[1].Phase)
}

func (s *InMemoryDocumentStoreSuite) TestStreams() {
	older := s.create(models.TypePassport, models.SideNone, s.now)
	newer := s.create(models.TypeDrivingLicense, models.SideNone, s.now.Add(time.Second))

	var uploading []id.DocumentID
	for d, err := range s.store.StreamByProviderStatus(s.ctx, "mock", models.StatusUploadInProgress) {
		s.Require().NoError(err)
		uploading = append(uploading, d.ID)
	}
	s.Equal([]id.DocumentID{older.ID, newer.ID}, uploading)

	for _, d := range []*models.Document{older, newer} {
		_, err := s.store.UpdateStatus(s.ctx, d.ID, models.StatusUploadInProgress, models.StatusChange{
			Status:                 models.StatusVerificationInProgress,
			ProviderVerificationID: "pv-1",
		}, s.now)
		s.Require().NoError(err)
	}

	var refs []models.ProviderVerificationRef
	for ref, err := range s.store.StreamPendingVerifications(s.ctx, "mock") {
		s.Require().NoError(err)
		refs = append(refs, ref)
	}
	s.Equal([]models.ProviderVerificationRef{{VerificationID: s.verificationID, ProviderVerificationID: "pv-1"}}, refs)

	for range s.store.StreamPendingVerifications(s.ctx, "other-provider") {
		s.Fail("unexpected ref for another provider")
	}
}
