// Package bedrockprovider wires the judgment requester (rawr/judgment) to
// AWS Bedrock's ConverseStream API, reusing autocompact/providers/bedrock's
// Provider implementation rather than inventing a second Bedrock client.
package bedrockprovider

import (
	"context"
	"fmt"

	"autocompact/core/provider"
	"autocompact/providers/bedrock"
)

// DefaultModel is the model judgment requests are sent to absent an
// operator override — a small, fast model is enough for a binary
// should-compact verdict.
const DefaultModel = "anthropic.claude-3-5-haiku-20241022-v1:0"

// New builds a provider.Provider backed by Bedrock for the given region and
// optional named AWS credentials profile. Dynamic pricing lookups are never
// needed for judgment requests, so pricing stays disabled.
func New(ctx context.Context, region, profile string) (provider.Provider, error) {
	p, err := bedrock.NewBedrock(ctx, region, profile, provider.PricingConfig{Enabled: false})
	if err != nil {
		return nil, fmt.Errorf("rawr judgment bedrock provider: %w", err)
	}
	return p, nil
}
