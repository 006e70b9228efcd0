package reconciler

import (
	"github.com/agentstation/searchterms/pkg/constants"
)

// StrategyType represents the type of conflict resolution strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

const (
	// StrategyTypeKeepExisting keeps the consolidated table's value when a
	// matched row disagrees with the contribution.
	StrategyTypeKeepExisting StrategyType = "keep-existing"
	// StrategyTypePreferContribution takes the contribution's value when it
	// is not blank.
	StrategyTypePreferContribution StrategyType = "prefer-contribution"
)

// Strategy decides the value of a non-attribution cell when two rows with
// the same key are combined.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// ResolveConflict returns the combined value of a cell. existing is the
	// value already held by the consolidated row and incoming the value of
	// the row merged into it.
	ResolveConflict(column, existing, incoming string) string
}

type keepExisting struct{}

// NewKeepExistingStrategy returns the default strategy: the existing value
// wins and the incoming value only fills a blank cell.
func NewKeepExistingStrategy() Strategy {
	return keepExisting{}
}

func (keepExisting) Type() StrategyType { return StrategyTypeKeepExisting }

func (keepExisting) Description() string {
	return "Keeps the consolidated value, filling blanks from the contribution"
}

func (keepExisting) ResolveConflict(_, existing, incoming string) string {
	if existing == constants.Blank {
		return incoming
	}
	return existing
}

type preferContribution struct{}

// NewPreferContributionStrategy returns a strategy where a non-blank
// incoming value replaces the existing one.
func NewPreferContributionStrategy() Strategy {
	return preferContribution{}
}

func (preferContribution) Type() StrategyType { return StrategyTypePreferContribution }

func (preferContribution) Description() string {
	return "Replaces consolidated values with non-blank contribution values"
}

func (preferContribution) ResolveConflict(_, existing, incoming string) string {
	if incoming == constants.Blank {
		return existing
	}
	return incoming
}
