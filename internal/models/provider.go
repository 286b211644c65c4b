package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProvider is returned when a provider name is not one of the supported set.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider identifies one of the two storage services the backend integrates.
// The value doubles as the backend path segment (/files/<provider>, ...).
type Provider string

const (
	// ProviderGoogle is the primary provider (Google Drive)
	ProviderGoogle Provider = "google"
	// ProviderOneDrive is the secondary provider (Microsoft OneDrive)
	ProviderOneDrive Provider = "onedrive"
)

// Providers returns the supported providers in display order.
// The returned slice is fresh; callers may modify it.
func Providers() []Provider {
	return []Provider{ProviderGoogle, ProviderOneDrive}
}

// ParseProvider converts user input into a Provider.
// Matching is case-insensitive and accepts a few common aliases.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "google", "gdrive", "drive", "primary":
		return ProviderGoogle, nil
	case "onedrive", "microsoft", "ms", "secondary":
		return ProviderOneDrive, nil
	default:
		return "", fmt.Errorf("%w: %q (expected google or onedrive)", ErrUnknownProvider, s)
	}
}

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderOneDrive
}

// String returns the backend path segment.
func (p Provider) String() string {
	return string(p)
}

// DisplayName returns the human-readable service name.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google Drive"
	case ProviderOneDrive:
		return "OneDrive"
	default:
		return string(p)
	}
}
