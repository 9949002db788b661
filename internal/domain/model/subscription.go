package model

import "strings"

type SubscriptionTier string

const (
	SubscriptionTierNone    SubscriptionTier = "none"
	SubscriptionTierPremium SubscriptionTier = "premium"
)

// PackageSubscriptionPremium is the package reference that buys the premium tier
// instead of a single course.
const PackageSubscriptionPremium = "subscription-premium"

// IsSubscriptionPackage reports whether ref denotes the premium subscription product.
// The short form "premium" is accepted for older clients.
func IsSubscriptionPackage(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	return ref == PackageSubscriptionPremium || ref == string(SubscriptionTierPremium)
}

// PackageKind labels a package reference for metrics and logs: "subscription" or "course".
func PackageKind(ref string) string {
	if IsSubscriptionPackage(ref) {
		return "subscription"
	}
	return "course"
}
