package presence

import (
	"context"

	"onboarding/internal/presence/ports"
	"onboarding/internal/providers"
	id "onboarding/pkg/domain"
)

// DisabledName is the provider name selecting no presence check.
const DisabledName = "disabled"

// Disabled answers every call with a not_enabled provider error.
type Disabled struct{}

var _ ports.Provider = Disabled{}

func (Disabled) Name() string { return DisabledName }

func (Disabled) InitPresenceCheck(context.Context, id.OwnerID, []byte) error {
	return errNotEnabled()
}

func (Disabled) StartPresenceCheck(context.Context, id.OwnerID) (ports.SessionInfo, error) {
	return ports.SessionInfo{}, errNotEnabled()
}

func (Disabled) GetResult(context.Context, id.OwnerID, ports.SessionInfo) (ports.Result, error) {
	return ports.Result{}, errNotEnabled()
}

func (Disabled) CleanupIdentityData(context.Context, id.OwnerID, ports.SessionInfo) error {
	return errNotEnabled()
}

func errNotEnabled() error {
	return providers.NewProviderError(providers.ErrorNotEnabled, DisabledName, "presence check is not enabled", nil)
}
