/*
Package dsl provides a fluent Go builder for loom graphs.

It is an alternative to YAML documents, handy for tests and for graphs generated at runtime.

Example usage:

	b := dsl.New()
	bp := b.Blueprint("greet").Describe("Say hello")

	bp.Add("start", blocks.TypeAPITrigger).On(blocks.OutcomeTrigger, "save")
	bp.Add("save", blocks.TypeSetState).
		Set("element", "greeting").
		Set("value", "Hello, @{payload.name}!").
		Then("done")
	bp.Add("done", blocks.TypeReturnValue).Set("value", "@{greeting}")

	loader, err := b.Build()
	// ... pass loader to loom.Load(...)
*/
package dsl
