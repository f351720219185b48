package ir

import (
	"fmt"
	"slices"
	"strings"
)

// TriggerType distinguishes execution triggers.
type TriggerType int

const (
	// TriggerOnSync fires when a tensor is read back and the stream must drain.
	TriggerOnSync TriggerType = iota + 1
	// TriggerAlways fires unconditionally.
	TriggerAlways
	// TriggerOnOperations fires when the listed operation kinds are seen next.
	TriggerOnOperations
)

// Trigger is a condition under which an execution plan runs.
type Trigger struct {
	Type TriggerType
	// Kinds lists the operation kind names for TriggerOnOperations.
	Kinds []string
}

// OnSync returns the sync trigger.
func OnSync() Trigger { return Trigger{Type: TriggerOnSync} }

// Always returns the unconditional trigger.
func Always() Trigger { return Trigger{Type: TriggerAlways} }

// OnOperations returns a trigger on the given operation kind names.
func OnOperations(kinds ...string) Trigger {
	return Trigger{Type: TriggerOnOperations, Kinds: slices.Clone(kinds)}
}

// Equal reports whether two triggers are the same condition.
func (t Trigger) Equal(other Trigger) bool {
	return t.Type == other.Type && slices.Equal(t.Kinds, other.Kinds)
}

// String renders "OnSync", "Always" or "OnOperations[Add, Mul]".
func (t Trigger) String() string {
	switch t.Type {
	case TriggerOnSync:
		return "OnSync"
	case TriggerAlways:
		return "Always"
	case TriggerOnOperations:
		return "OnOperations[" + strings.Join(t.Kinds, ", ") + "]"
	default:
		return fmt.Sprintf("Trigger(%d)", int(t.Type))
	}
}

// StrategyKind distinguishes how a plan executes its operations.
type StrategyKind int

const (
	// StrategyFused runs the operations as one optimized block.
	StrategyFused StrategyKind = iota + 1
	// StrategyOperations runs each operation individually.
	StrategyOperations
	// StrategyComposed chains sub-strategies.
	StrategyComposed
)

// Strategy is how a plan runs: an ordering over the plan's operations, or
// a composition of sub-strategies.
type Strategy struct {
	Kind     StrategyKind
	Ordering []int
	Parts    []Strategy
}

// String renders e.g. "Fused[0 1 2]" or "Composed(Fused[0 1], Operations[2])".
func (s Strategy) String() string {
	switch s.Kind {
	case StrategyFused:
		return fmt.Sprintf("Fused%v", s.Ordering)
	case StrategyOperations:
		return fmt.Sprintf("Operations%v", s.Ordering)
	case StrategyComposed:
		parts := make([]string, len(s.Parts))
		for i, p := range s.Parts {
			parts[i] = p.String()
		}
		return "Composed(" + strings.Join(parts, ", ") + ")"
	default:
		return "Unknown"
	}
}

// Clone deep-copies the strategy.
func (s Strategy) Clone() Strategy {
	out := Strategy{Kind: s.Kind, Ordering: slices.Clone(s.Ordering)}
	if s.Parts != nil {
		out.Parts = make([]Strategy, len(s.Parts))
		for i, p := range s.Parts {
			out.Parts[i] = p.Clone()
		}
	}
	return out
}

// ExecutionPlan is a materialized plan owned by the plan registry.
type ExecutionPlan struct {
	ID         int
	Operations []OperationRecord
	Triggers   []Trigger
	Strategy   Strategy
	// Streams lists, ascending, the streams that executed this plan.
	Streams []StreamID
}

// Clone deep-copies the plan.
func (p ExecutionPlan) Clone() ExecutionPlan {
	out := ExecutionPlan{
		ID:         p.ID,
		Operations: CloneRecords(p.Operations),
		Strategy:   p.Strategy.Clone(),
		Streams:    slices.Clone(p.Streams),
	}
	if p.Triggers != nil {
		out.Triggers = make([]Trigger, len(p.Triggers))
		for i, t := range p.Triggers {
			out.Triggers[i] = Trigger{Type: t.Type, Kinds: slices.Clone(t.Kinds)}
		}
	}
	return out
}

// Stats summarizes the plan.
func (p ExecutionPlan) Stats() ExecutionPlanStats {
	kinds := make([]string, len(p.Operations))
	for i, op := range p.Operations {
		kinds[i] = op.Kind.KindName()
	}
	triggers := make([]string, len(p.Triggers))
	for i, t := range p.Triggers {
		triggers[i] = t.String()
	}
	return ExecutionPlanStats{
		ID:             p.ID,
		OperationCount: len(p.Operations),
		TriggerCount:   len(p.Triggers),
		Triggers:       triggers,
		OperationKinds: kinds,
		Strategy:       p.Strategy.String(),
		Streams:        slices.Clone(p.Streams),
	}
}

// ExecutionPlanStats summarizes one execution plan for debugging.
type ExecutionPlanStats struct {
	ID             int        `json:"id"`
	OperationCount int        `json:"operation_count"`
	TriggerCount   int        `json:"trigger_count"`
	Triggers       []string   `json:"triggers"`
	OperationKinds []string   `json:"operation_kinds"`
	Strategy       string     `json:"strategy"`
	Streams        []StreamID `json:"streams"`
}

// FusionDebugSummary aggregates the fusion state at one instant.
// It is built fresh per query and shares nothing with the runtime.
type FusionDebugSummary struct {
	StreamCount            int                  `json:"stream_count"`
	TotalOperations        int                  `json:"total_operations"`
	ExecutionPlanCount     int                  `json:"execution_plan_count"`
	ExecutionPlanSummaries []ExecutionPlanStats `json:"execution_plan_summaries"`
}
