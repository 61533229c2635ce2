// internal/coordinator/states.go
package coordinator

// Workflow names one of the coordinator's public sequences.
type Workflow string

const (
	WorkflowNewQuote       Workflow = "new_quote"
	WorkflowReoptimize     Workflow = "reoptimize"
	WorkflowFeedback       Workflow = "feedback"
	WorkflowMarketInsights Workflow = "market_insights"
)

// State is a single step of a workflow.
type State string

const (
	StateAnalyzeRequirements       State = "analyze_requirements"
	StateRetrieveComparables       State = "retrieve_comparables"
	StateLookupRules               State = "lookup_rules"
	StateGenerateQuote             State = "generate_quote"
	StateOptimizePricing           State = "optimize_pricing"
	StateGenerateRecommendations   State = "generate_recommendations"
	StatePersist                   State = "persist"
	StateRespond                   State = "respond"
	StateFetchQuote                State = "fetch_quote"
	StateFindSuccessfulComparables State = "find_successful_comparables"
	StateRecordFeedback            State = "record_feedback"
	StateTransitionStatus          State = "transition_status"
	StateNotifyOptimizer           State = "notify_optimizer"
	StateAggregateAnalytics        State = "aggregate_analytics"
	StateGenerateInsights          State = "generate_insights"
)

// sequences lists each workflow's states in execution order. Reoptimize only
// visits StatePersist when persistence on reoptimize is enabled.
var sequences = map[Workflow][]State{
	WorkflowNewQuote: {
		StateAnalyzeRequirements,
		StateRetrieveComparables,
		StateLookupRules,
		StateGenerateQuote,
		StateOptimizePricing,
		StateGenerateRecommendations,
		StatePersist,
		StateRespond,
	},
	WorkflowReoptimize: {
		StateFetchQuote,
		StateFindSuccessfulComparables,
		StateOptimizePricing,
		StateGenerateRecommendations,
		StatePersist,
		StateRespond,
	},
	WorkflowFeedback: {
		StateRecordFeedback,
		StateTransitionStatus,
		StateNotifyOptimizer,
		StateRespond,
	},
	WorkflowMarketInsights: {
		StateAggregateAnalytics,
		StateGenerateInsights,
		StateRespond,
	},
}

// visits reports whether st belongs to wf's sequence.
func (wf Workflow) visits(st State) bool {
	for _, s := range sequences[wf] {
		if s == st {
			return true
		}
	}
	return false
}
