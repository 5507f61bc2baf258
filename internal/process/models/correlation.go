package models

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Correlation is the opaque context captured when the process starts. It is
// stored as JSON and only read back for audit and fraud evaluation.
type Correlation struct {
	Locale       string            `json:"locale,omitempty"`
	ClientIP     string            `json:"client_ip,omitempty"`
	UserAgent    string            `json:"user_agent,omitempty"`
	Device       string            `json:"device,omitempty"`
	FraudSignals map[string]string `json:"fraud_signals,omitempty"`
}

// NewCorrelation normalizes the inputs and derives a readable device summary.
func NewCorrelation(locale, clientIP, userAgent string, fraudSignals map[string]string) Correlation {
	ua := strings.TrimSpace(userAgent)
	return Correlation{
		Locale:       strings.TrimSpace(locale),
		ClientIP:     strings.TrimSpace(clientIP),
		UserAgent:    ua,
		Device:       DeviceSummary(ua),
		FraudSignals: fraudSignals,
	}
}

// DeviceSummary turns a User-Agent header into "Browser on OS", "mobile"
// suffixed where applicable.
func DeviceSummary(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}
	ua := useragent.New(userAgent)
	browser, version := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if major, _, found := strings.Cut(version, "."); found {
		version = major
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	summary := strings.TrimSpace(fmt.Sprintf("%s %s", browser, version)) + " on " + os
	if ua.Mobile() {
		summary += " (mobile)"
	}
	return summary
}
