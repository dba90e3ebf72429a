package types

// Tier classifies a KB file and drives staleness thresholds, sort
// priority, and fence write-mode rules (spec §3, §4.C).
type Tier string

const (
	TierStructural   Tier = "structural"
	TierStatus       Tier = "status"
	TierIntelligence Tier = "intelligence"
	TierGeneral      Tier = "general"
)

// TierPriority returns the sort priority for a tier (lower = earlier).
func TierPriority(t Tier) int {
	switch t {
	case TierStructural:
		return 0
	case TierStatus:
		return 1
	case TierIntelligence:
		return 2
	default:
		return 3
	}
}

// TierSource records whether a file's tier was inferred by the classifier
// or pinned manually; manual tiers are never overwritten by a rescan.
type TierSource string

const (
	TierSourceInferred TierSource = "inferred"
	TierSourceManual   TierSource = "manual"
)

// StalenessLevel is the three-way bucket produced by the staleness model.
type StalenessLevel string

const (
	StalenessFresh    StalenessLevel = "fresh"
	StalenessStale    StalenessLevel = "stale"
	StalenessCritical StalenessLevel = "critical"
)

// StalenessBasis records which timestamp drove a staleness computation.
type StalenessBasis string

const (
	BasisMtime    StalenessBasis = "mtime"
	BasisSemantic StalenessBasis = "semantic"
)

// RelationshipType classifies a domain-to-domain edge.
type RelationshipType string

const (
	RelationshipSibling   RelationshipType = "sibling"
	RelationshipReference RelationshipType = "reference"
	RelationshipParent    RelationshipType = "parent"
)

// DependencyType classifies the operational meaning of a domain edge.
type DependencyType string

const (
	DependencyBlocks      DependencyType = "blocks"
	DependencyDependsOn   DependencyType = "depends_on"
	DependencyInforms     DependencyType = "informs"
	DependencyParallel    DependencyType = "parallel"
	DependencyMonitorOnly DependencyType = "monitor_only"
)

// DeadlineStatus tracks the lifecycle of a per-domain deadline.
type DeadlineStatus string

const (
	DeadlineActive    DeadlineStatus = "active"
	DeadlineSnoozed   DeadlineStatus = "snoozed"
	DeadlineCompleted DeadlineStatus = "completed"
	DeadlineCancelled DeadlineStatus = "cancelled"
)

// SessionStatus tracks a work session's lifecycle.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionWrappedUp SessionStatus = "wrapped_up"
)

// DomainStatus is the derived single-word health label for a domain.
type DomainStatus string

const (
	DomainBlocked   DomainStatus = "blocked"
	DomainStaleRisk DomainStatus = "stale-risk"
	DomainQuiet     DomainStatus = "quiet"
	DomainActive    DomainStatus = "active"
)

// AlertSeverity is the three-way bucket for cross-domain alerts.
type AlertSeverity string

const (
	AlertCritical AlertSeverity = "critical"
	AlertWarning  AlertSeverity = "warning"
	AlertMonitor  AlertSeverity = "monitor"
)

// BrainstormStep is a node in the brainstorm state machine.
type BrainstormStep string

const (
	StepSetup               BrainstormStep = "setup"
	StepTechniqueSelection  BrainstormStep = "technique_selection"
	StepExecution           BrainstormStep = "execution"
	StepSynthesis           BrainstormStep = "synthesis"
	StepCompleted           BrainstormStep = "completed"
)

// BrainstormPhase is the derived divergent/convergent phase.
type BrainstormPhase string

const (
	PhaseDivergent  BrainstormPhase = "divergent"
	PhaseConvergent BrainstormPhase = "convergent"
)

// AdvisoryPersist controls whether an advisory artifact is durably kept.
type AdvisoryPersist string

const (
	AdvisoryPersistNo      AdvisoryPersist = "no"
	AdvisoryPersistYes     AdvisoryPersist = "yes"
	AdvisoryPersistArchive AdvisoryPersist = "archive"
)

// AdvisorySource records who produced an advisory artifact.
type AdvisorySource string

const (
	AdvisorySourceLLM    AdvisorySource = "llm"
	AdvisorySourceUser   AdvisorySource = "user"
	AdvisorySourceImport AdvisorySource = "import"
)

// FenceMode is the write mode a kb-update proposal requests.
type FenceMode string

const (
	ModeFull   FenceMode = "full"
	ModeAppend FenceMode = "append"
	ModePatch  FenceMode = "patch"
)

// FenceBasis records the provenance basis of a kb-update proposal.
type FenceBasis string

const (
	BasisPrimary  FenceBasis = "primary"
	BasisSibling  FenceBasis = "sibling"
	BasisExternal FenceBasis = "external"
	BasisUser     FenceBasis = "user"
)

// FenceAction is the action a kb-update proposal requests.
type FenceAction string

const (
	ActionCreate FenceAction = "create"
	ActionUpdate FenceAction = "update"
	ActionDelete FenceAction = "delete"
)
