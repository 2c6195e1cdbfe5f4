package tiers

// FeatureAll is the wildcard capability meaning "every premium feature".
const FeatureAll = "*"

// premium capability tags
const (
	FeatureAIDrafting      = "ai_drafting"
	FeatureAIAnalysis      = "ai_analysis"
	FeatureExportPDF       = "export_pdf"
	FeaturePrioritySupport = "priority_support"
)

// Policy is the immutable limit set for one tier.
type Policy struct {
	DailyRequests       Limit
	MaxTokensPerRequest Limit
	ConcurrentRequests  Limit
	PremiumFeatures     map[string]bool
}

// one policy per tier; never mutated after init
var policies = map[Tier]Policy{
	TierStarter: {
		DailyRequests:       LimitOf(20),
		MaxTokensPerRequest: LimitOf(4_000),
		ConcurrentRequests:  LimitOf(1),
		PremiumFeatures:     features(),
	},
	TierPro: {
		DailyRequests:       LimitOf(100),
		MaxTokensPerRequest: LimitOf(16_000),
		ConcurrentRequests:  LimitOf(2),
		PremiumFeatures:     features(FeatureAIDrafting, FeatureExportPDF),
	},
	TierTeam: {
		DailyRequests:       LimitOf(500),
		MaxTokensPerRequest: LimitOf(32_000),
		ConcurrentRequests:  LimitOf(5),
		PremiumFeatures:     features(FeatureAIDrafting, FeatureAIAnalysis, FeatureExportPDF),
	},
	TierEnterprise: {
		DailyRequests:       Unlimited(),
		MaxTokensPerRequest: LimitOf(100_000),
		ConcurrentRequests:  LimitOf(20),
		PremiumFeatures:     features(FeatureAll),
	},
	TierAdmin: {
		DailyRequests:       Unlimited(),
		MaxTokensPerRequest: Unlimited(),
		ConcurrentRequests:  Unlimited(),
		PremiumFeatures:     features(FeatureAll),
	},
}

// returns the policy for a tier; unknown tiers get the Starter policy
func PolicyFor(t Tier) Policy {
	if p, ok := policies[t]; ok {
		return p
	}

	return policies[TierStarter]
}

// reports whether the tier's feature set includes the given capability
func HasFeature(t Tier, feature string) bool {
	p := PolicyFor(t)

	if p.PremiumFeatures[FeatureAll] {
		return true
	}

	return p.PremiumFeatures[feature]
}

func features(tags ...string) map[string]bool {
	set := make(map[string]bool, len(tags))

	for _, tag := range tags {
		set[tag] = true
	}

	return set
}
