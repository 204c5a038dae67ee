package reconcile

import (
	"fmt"
	"strings"

	"github.com/temirov/canonsync/internal/inventory"
)

const (
	unsupportedRepositoryTypeTemplateConstant = "unsupported repository type %q (expected one of %s)"
	repositoryTypeListSeparatorConstant       = ", "
)

// Priority ranks how urgently a missing canon must be layered down.
type Priority string

// Supported priorities.
const (
	PriorityCritical Priority = Priority("CRITICAL")
	PriorityHigh     Priority = Priority("HIGH")
	PriorityMedium   Priority = Priority("MEDIUM")
)

// PolicyDecision captures whether a canon is mandatory and how urgent its absence is.
type PolicyDecision struct {
	Mandatory bool
	Priority  Priority
}

// MandatoryPolicy decides mandatoriness and priority from a layering classification.
// Implementations must be pure.
type MandatoryPolicy func(classification inventory.LayeringClassification) PolicyDecision

// DerivePriority ranks a canon: CRITICAL when mandatory and PUBLIC_API, HIGH when only one of
// the two holds, MEDIUM otherwise.
func DerivePriority(classification inventory.LayeringClassification, mandatory bool) Priority {
	publicAPI := classification == inventory.LayeringPublicAPI
	switch {
	case publicAPI && mandatory:
		return PriorityCritical
	case publicAPI, mandatory:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// ApplicationPolicy treats only PUBLIC_API canons as mandatory.
func ApplicationPolicy(classification inventory.LayeringClassification) PolicyDecision {
	mandatory := classification == inventory.LayeringPublicAPI
	return PolicyDecision{Mandatory: mandatory, Priority: DerivePriority(classification, mandatory)}
}

// GovernancePolicy treats PUBLIC_API and INTERNAL canons as mandatory.
func GovernancePolicy(classification inventory.LayeringClassification) PolicyDecision {
	mandatory := classification == inventory.LayeringPublicAPI || classification == inventory.LayeringInternal
	return PolicyDecision{Mandatory: mandatory, Priority: DerivePriority(classification, mandatory)}
}

// RepositoryType names a repository archetype with its own mandatoriness rules.
type RepositoryType string

// Supported repository archetypes.
const (
	RepositoryTypeApplication    RepositoryType = RepositoryType("application")
	RepositoryTypeInfrastructure RepositoryType = RepositoryType("infrastructure")
	RepositoryTypeGovernance     RepositoryType = RepositoryType("governance")
)

var policiesByRepositoryType = map[RepositoryType]MandatoryPolicy{
	RepositoryTypeApplication:    ApplicationPolicy,
	RepositoryTypeInfrastructure: ApplicationPolicy,
	RepositoryTypeGovernance:     GovernancePolicy,
}

// PolicyForRepositoryType resolves the mandatory policy of a repository archetype.
// An empty value selects the application archetype.
func PolicyForRepositoryType(rawRepositoryType string) (MandatoryPolicy, error) {
	normalizedType := RepositoryType(strings.ToLower(strings.TrimSpace(rawRepositoryType)))
	if len(normalizedType) == 0 {
		normalizedType = RepositoryTypeApplication
	}
	policy, supported := policiesByRepositoryType[normalizedType]
	if !supported {
		return nil, fmt.Errorf(unsupportedRepositoryTypeTemplateConstant, rawRepositoryType, strings.Join(SupportedRepositoryTypeNames(), repositoryTypeListSeparatorConstant))
	}
	return policy, nil
}

// SupportedRepositoryTypeNames lists the accepted repository archetypes in display order.
func SupportedRepositoryTypeNames() []string {
	return []string{
		string(RepositoryTypeApplication),
		string(RepositoryTypeInfrastructure),
		string(RepositoryTypeGovernance),
	}
}
