package blocks

import (
	"net/http"
	"time"
)

// Built-in block types.
const (
	TypeAPITrigger     = "apitrigger"
	TypeSetState       = "setstate"
	TypeAddToStateList = "addtostatelist"
	TypeReturnValue    = "returnvalue"
	TypeLogMessage     = "logmessage"
	TypeParseJSON      = "parsejson"
	TypeCondition      = "condition"
	TypeForEach        = "foreach"
	TypeRunBlueprint   = "runblueprint"
	TypeHTTPRequest    = "httprequest"
)

// Outcomes produced by built-in blocks besides success and error.
const (
	OutcomeTrigger         = "trigger"
	OutcomeTrue            = "true"
	OutcomeFalse           = "false"
	OutcomeLoop            = "loop"
	OutcomeResponseError   = "responseError"
	OutcomeConnectionError = "connectionError"
)

func init() {
	RegisterBuiltins(Default)
}

// RegisterBuiltins registers every built-in block type into r.
func RegisterBuiltins(r *Registry) {
	r.Register(TypeAPITrigger, Func(runAPITrigger), apiTriggerMeta)
	r.Register(TypeSetState, Func(runSetState), setStateMeta)
	r.Register(TypeAddToStateList, Func(runAddToStateList), addToStateListMeta)
	r.Register(TypeReturnValue, Func(runReturnValue), returnValueMeta)
	r.Register(TypeLogMessage, Func(runLogMessage), logMessageMeta)
	r.Register(TypeParseJSON, Func(runParseJSON), parseJSONMeta)
	r.Register(TypeCondition, Func(runCondition), conditionMeta)
	r.Register(TypeForEach, Func(runForEach), forEachMeta)
	r.Register(TypeRunBlueprint, Func(runRunBlueprint), runBlueprintMeta)
	r.Register(TypeHTTPRequest, NewHTTPRequest(&http.Client{Timeout: 30 * time.Second}), httpRequestMeta)
}

var success = map[string]OutcomeSpec{
	"success": {Description: "The block completed."},
}

var successOrError = map[string]OutcomeSpec{
	"success": {Description: "The block completed."},
	"error":   {Description: "The block failed; the result holds the fault text."},
}
