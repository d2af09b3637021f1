package blocks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/loom/pkg/domain"
)

const (
	valueTypeText = "text"
	valueTypeJSON = "JSON"
)

var setStateMeta = Metadata{
	Description: "Assigns a value to a state path.",
	Category:    "state",
	Fields: map[string]FieldSpec{
		"element":    {Description: "State path, e.g. order.items[0].", Required: true},
		"value":      {Description: "Value to assign."},
		"value_type": {Description: "text or JSON; JSON decodes string values.", Default: valueTypeText},
	},
	Outcomes: successOrError,
}

func runSetState(ctx context.Context, inst *Instance) error {
	path, value, err := pathAndValue(ctx, inst)
	if err != nil {
		return inst.Fail(err)
	}
	if err := inst.SetState(ctx, path, value); err != nil {
		return inst.Fail(err)
	}
	inst.Succeed(value)
	return nil
}

var addToStateListMeta = Metadata{
	Description: "Appends a value to the list at a state path, creating the list when absent.",
	Category:    "state",
	Fields: map[string]FieldSpec{
		"element":    {Description: "State path of the list.", Required: true},
		"value":      {Description: "Value to append."},
		"value_type": {Description: "text or JSON.", Default: valueTypeText},
	},
	Outcomes: successOrError,
}

func runAddToStateList(ctx context.Context, inst *Instance) error {
	path, value, err := pathAndValue(ctx, inst)
	if err != nil {
		return inst.Fail(err)
	}
	resolved := inst.Evaluator().ResolvePath(ctx, path, inst.Env)

	var size int
	err = inst.Evaluator().Store().MutateContext(ctx, resolved, func(current any, exists bool) (any, error) {
		if !exists || current == nil {
			size = 1
			return []any{value}, nil
		}
		list, ok := current.([]any)
		if !ok {
			return nil, fmt.Errorf("state path '%s' holds %T, not a list", resolved, current)
		}
		size = len(list) + 1
		return append(list, value), nil
	})
	if err != nil {
		return inst.Fail(err)
	}
	inst.Succeed(size)
	return nil
}

func pathAndValue(ctx context.Context, inst *Instance) (string, any, error) {
	path, err := rawField(inst, "element")
	if err != nil {
		return "", nil, err
	}
	valueType, err := inst.GetString(ctx, "value_type", false, valueTypeText)
	if err != nil {
		return "", nil, err
	}
	value, err := inst.GetField(ctx, "value", false, nil, valueType == valueTypeJSON)
	if err != nil {
		return "", nil, err
	}
	return path, value, nil
}

// rawField returns the unevaluated text of a required field. State paths are rendered
// by the evaluator itself so that "list[@{i}]" addresses an element instead of its value.
func rawField(inst *Instance, key string) (string, error) {
	f, ok := inst.Node.Field(key)
	if !ok || f.Raw == "" {
		return "", &domain.ConfigurationError{NodeID: inst.Node.ID, Field: key}
	}
	return f.Raw, nil
}

var returnValueMeta = Metadata{
	Description: "Ends the invocation with a value.",
	Category:    "flow",
	Fields: map[string]FieldSpec{
		"value":      {Description: "Value returned to the caller.", Required: true},
		"value_type": {Description: "text or JSON.", Default: valueTypeText},
	},
	Outcomes: success,
}

func runReturnValue(ctx context.Context, inst *Instance) error {
	valueType, err := inst.GetString(ctx, "value_type", false, valueTypeText)
	if err != nil {
		return inst.Fail(err)
	}
	value, err := inst.GetField(ctx, "value", true, nil, valueType == valueTypeJSON)
	if err != nil {
		return inst.Fail(err)
	}
	inst.Succeed(value)
	inst.ReturnValue = value
	return nil
}

var parseJSONMeta = Metadata{
	Description: "Decodes a JSON document.",
	Category:    "data",
	Fields: map[string]FieldSpec{
		"plain_text": {Description: "JSON text to decode.", Required: true},
	},
	Outcomes: successOrError,
}

func runParseJSON(ctx context.Context, inst *Instance) error {
	text, err := inst.GetString(ctx, "plain_text", true, "")
	if err != nil {
		return inst.Fail(err)
	}
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return inst.Fail(fmt.Errorf("parse json: %w", err))
	}
	inst.Succeed(decoded)
	return nil
}
