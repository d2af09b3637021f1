package blocks

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/expr"
	"github.com/aretw0/loom/pkg/schema"
)

var apiTriggerMeta = Metadata{
	Description: "Entry point of a blueprint invoked from outside. Its result is the caller payload.",
	Category:    "trigger",
	Fields: map[string]FieldSpec{
		"default_result": {Description: "JSON used when the caller sends no payload."},
		"schema":         {Description: `Object of field name to type ("string", "int", "[string]", "int?", ...) the payload must match.`},
	},
	Outcomes: map[string]OutcomeSpec{
		OutcomeTrigger:      {Description: "Fires when the payload is accepted."},
		domain.OutcomeError: {Description: "The payload does not match the schema."},
	},
}

func runAPITrigger(ctx context.Context, inst *Instance) error {
	result := inst.Env[domain.EnvPayload]
	if domain.IsEmpty(result) {
		def, err := inst.GetField(ctx, "default_result", false, nil, true)
		if err != nil {
			return inst.Fail(err)
		}
		result = def
	}

	var types map[string]string
	if err := inst.DecodeField(ctx, "schema", &types); err != nil {
		return inst.Fail(err)
	}
	if len(types) > 0 {
		s, err := schema.ParseTypeMap(types)
		if err != nil {
			return inst.Fail(&domain.ConfigurationError{NodeID: inst.Node.ID, Field: "schema", Err: err})
		}
		if err := schema.ValidateValue(s, result); err != nil {
			return inst.Fail(fmt.Errorf("invalid payload: %w", err))
		}
	}

	inst.Result = result
	inst.Outcome = OutcomeTrigger
	return nil
}

var conditionMeta = Metadata{
	Description: "Evaluates an expression and branches on its truthiness.",
	Category:    "flow",
	Fields: map[string]FieldSpec{
		"expression": {Description: "Expression, bare or inside @{...}.", Required: true},
	},
	Outcomes: map[string]OutcomeSpec{
		OutcomeTrue:  {Description: "The expression is truthy."},
		OutcomeFalse: {Description: "The expression is falsy or failed to evaluate."},
	},
}

func runCondition(ctx context.Context, inst *Instance) error {
	f, ok := inst.Node.Field("expression")
	if !ok || f.Raw == "" {
		return inst.Fail(&domain.ConfigurationError{NodeID: inst.Node.ID, Field: "expression"})
	}

	var value any
	if f.IsTemplate() {
		value = inst.Evaluator().Render(ctx, f.Raw, inst.Env)
	} else {
		value = inst.Evaluator().EvaluateExpression(ctx, f.Raw, inst.Env)
	}

	inst.Result = value
	if Truthy(value) {
		inst.Outcome = OutcomeTrue
	} else {
		inst.Outcome = OutcomeFalse
	}
	return nil
}

// Truthy reports whether v counts as true for branching.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		if err == nil {
			return b
		}
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case uint64:
		return t != 0
	case float64:
		return t != 0
	}
	return !domain.IsEmpty(v)
}

var forEachMeta = Metadata{
	Description: "Runs the loop branch once per item, concurrently, and collects the branch return values in order.",
	Category:    "flow",
	Fields: map[string]FieldSpec{
		"items":  {Description: "List or map to iterate.", Required: true},
		"prefix": {Description: "Adds <prefix>_item and <prefix>_itemId to the loop environment, for nested loops."},
	},
	Outcomes: map[string]OutcomeSpec{
		OutcomeLoop:           {Description: "Branch executed for every item."},
		domain.OutcomeSuccess: {Description: "Every item completed; the result is the list of branch return values."},
		domain.OutcomeError:   {Description: "An item failed; no partial results are kept."},
	},
}

func runForEach(ctx context.Context, inst *Instance) error {
	items, err := inst.GetField(ctx, "items", true, nil, true)
	if err != nil {
		return inst.Fail(err)
	}
	prefix, err := inst.GetString(ctx, "prefix", false, "")
	if err != nil {
		return inst.Fail(err)
	}

	var envs []map[string]any
	add := func(id, item any) {
		env := make(map[string]any, len(inst.Env)+4)
		for k, v := range inst.Env {
			env[k] = v
		}
		env["item"] = item
		env["itemId"] = id
		if prefix != "" {
			env[prefix+"_item"] = item
			env[prefix+"_itemId"] = id
		}
		envs = append(envs, env)
	}

	switch t := items.(type) {
	case []any:
		for i, item := range t {
			add(i, item)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(k, t[k])
		}
	default:
		return inst.Fail(fmt.Errorf("items must be a list or a map, got %T", items))
	}

	results, err := inst.Host().RunBranchPool(ctx, inst.Node.ID, OutcomeLoop, envs)
	if err != nil {
		return inst.Fail(err)
	}
	inst.Succeed(results)
	return nil
}

var runBlueprintMeta = Metadata{
	Description: "Calls another blueprint and waits for its return value.",
	Category:    "flow",
	Fields: map[string]FieldSpec{
		"blueprint_key": {Description: "Key of the blueprint to run.", Required: true},
		"payload":       {Description: "JSON payload passed to the callee."},
	},
	Outcomes: successOrError,
}

func runRunBlueprint(ctx context.Context, inst *Instance) error {
	key, err := inst.GetString(ctx, "blueprint_key", true, "")
	if err != nil {
		return inst.Fail(err)
	}
	payload, err := inst.GetField(ctx, "payload", false, nil, true)
	if err != nil {
		return inst.Fail(err)
	}

	env := map[string]any{domain.EnvPayload: payload}
	if id, ok := inst.Env[domain.EnvRunID]; ok {
		env[domain.EnvRunID] = id
	}
	v, err := inst.Host().RunBlueprintByKey(ctx, key, env)
	if err != nil {
		return inst.Fail(fmt.Errorf("blueprint '%s': %w", key, err))
	}
	inst.Succeed(v)
	return nil
}

var logMessageMeta = Metadata{
	Description: "Sends a message to the session log.",
	Category:    "output",
	Fields: map[string]FieldSpec{
		"type":    {Description: "info or error.", Default: string(domain.MailInfo)},
		"message": {Description: "Message text.", Required: true},
	},
	Outcomes: success,
}

func runLogMessage(ctx context.Context, inst *Instance) error {
	kind, err := inst.GetString(ctx, "type", false, string(domain.MailInfo))
	if err != nil {
		return inst.Fail(err)
	}
	message, err := inst.GetField(ctx, "message", true, nil, false)
	if err != nil {
		return inst.Fail(err)
	}

	mail := domain.Mail{Kind: domain.MailInfo, Title: inst.Node.ID, Message: expr.Stringify(message)}
	if kind == string(domain.MailError) {
		mail.Kind = domain.MailError
	}
	if _, isString := message.(string); !isString {
		mail.Payload = message
	}
	inst.Host().Mail(ctx, mail)
	inst.Succeed(message)
	return nil
}
