package models

import (
	"slices"
	"strings"

	dErrors "onboarding/pkg/domain-errors"
)

// Pipeline is the configured phase order of a deployment.
type Pipeline struct {
	phases []Phase
}

// DefaultPipeline runs every phase.
func DefaultPipeline() Pipeline {
	return Pipeline{phases: []Phase{
		PhaseDocumentUpload,
		PhaseDocumentVerification,
		PhasePresenceCheck,
		PhaseOtpVerification,
		PhaseCompleted,
	}}
}

// ParsePipeline validates a phase order. It must start with DOCUMENT_UPLOAD
// directly followed by DOCUMENT_VERIFICATION, end with COMPLETED and name
// each phase at most once. PRESENCE_CHECK and OTP_VERIFICATION are optional.
func ParsePipeline(names []string) (Pipeline, error) {
	phases := make([]Phase, 0, len(names))
	for _, n := range names {
		p, err := ParsePhase(strings.TrimSpace(n))
		if err != nil {
			return Pipeline{}, err
		}
		if slices.Contains(phases, p) {
			return Pipeline{}, dErrors.New(dErrors.CodeValidation, "duplicate phase "+string(p))
		}
		phases = append(phases, p)
	}
	if len(phases) < 3 {
		return Pipeline{}, dErrors.New(dErrors.CodeValidation, "pipeline needs at least DOCUMENT_UPLOAD, DOCUMENT_VERIFICATION and COMPLETED")
	}
	if phases[0] != PhaseDocumentUpload || phases[1] != PhaseDocumentVerification {
		return Pipeline{}, dErrors.New(dErrors.CodeValidation, "pipeline must start with DOCUMENT_UPLOAD,DOCUMENT_VERIFICATION")
	}
	if phases[len(phases)-1] != PhaseCompleted {
		return Pipeline{}, dErrors.New(dErrors.CodeValidation, "pipeline must end with COMPLETED")
	}
	return Pipeline{phases: phases}, nil
}

// Phases returns a copy of the order.
func (p Pipeline) Phases() []Phase {
	return slices.Clone(p.phases)
}

// Has reports whether the pipeline runs phase.
func (p Pipeline) Has(phase Phase) bool {
	return slices.Contains(p.phases, phase)
}

// Next returns the phase following phase, or COMPLETED when phase is last or
// not part of the pipeline.
func (p Pipeline) Next(phase Phase) Phase {
	i := slices.Index(p.phases, phase)
	if i < 0 || i+1 >= len(p.phases) {
		return PhaseCompleted
	}
	return p.phases[i+1]
}

// EntryState is the state a verification takes on entering phase.
func EntryState(phase Phase) State {
	switch phase {
	case PhaseDocumentUpload:
		return StateDocumentUploadInProgress
	case PhaseDocumentVerification:
		return StateDocumentVerificationInProgress
	case PhasePresenceCheck:
		return StatePresenceCheckNotInitialized
	case PhaseOtpVerification:
		return StateOtpVerificationPending
	default:
		return StateCompletedAccepted
	}
}
