package nodes

// Node keys of the orchestration graph. The set is closed: every edge and
// branch in the builder references these constants, and graph compilation
// rejects dangling references.
const (
	NodeTurnSetup        = "turn_setup"
	NodeRouterChatModel  = "router_chat_model"
	NodeRouteParser      = "route_parser"
	NodeRespondAssembler = "respond_assembler"
	NodeRespondChatModel = "respond_chat_model"
	NodePlanAssembler    = "plan_assembler"
	NodePlannerChatModel = "planner_chat_model"
	NodeToolExecutor     = "tool_executor"
	NodeCollectResults   = "collect_results"
	NodeReflectAssembler = "reflect_assembler"
	NodeReflectChatModel = "reflect_chat_model"
	NodeReflectParser    = "reflect_parser"
	NodeSynthAssembler   = "synthesize_assembler"
	NodeSynthChatModel   = "synthesize_chat_model"
	NodeFinalizer        = "finalize_response"
)
