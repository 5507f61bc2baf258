package statemachine

import (
	docmodels "onboarding/internal/document/models"
)

func processRunning(f Facts) bool {
	return f.ProcessRunning
}

func presenceEnabled(f Facts) bool {
	return f.PresenceEnabled
}

// uploadsSettledAndReady holds once no upload is outstanding and the
// documents are ready for provider verification.
func uploadsSettledAndReady(f Facts) bool {
	if docmodels.AnyInStatus(f.Documents, docmodels.StatusUploadInProgress) {
		return false
	}
	return docmodels.ReadyForVerification(f.Documents)
}

func anyDocumentFailed(f Facts) bool {
	return docmodels.AnyInStatus(f.Documents, docmodels.StatusFailed)
}

// documentsRejected holds when the provider rejected a document, or accepted
// all of them without covering two identity document types.
func documentsRejected(f Facts) bool {
	if docmodels.AnyInStatus(f.Documents, docmodels.StatusRejected) {
		return true
	}
	return docmodels.AllInStatus(f.Documents, docmodels.StatusAccepted) && !docmodels.HasIdentityCoverage(f.Documents)
}

func documentsAccepted(f Facts) bool {
	return docmodels.AllInStatus(f.Documents, docmodels.StatusAccepted) && docmodels.HasIdentityCoverage(f.Documents)
}

func clientRejected(f Facts) bool {
	return documentsAccepted(f) && f.ClientRejected
}

func presenceIs(want PresenceOutcome) func(Facts) bool {
	return func(f Facts) bool {
		return f.Presence == want
	}
}

func otpIs(want OtpOutcome) func(Facts) bool {
	return func(f Facts) bool {
		return f.Otp == want
	}
}
