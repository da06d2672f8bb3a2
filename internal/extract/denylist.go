package extract

// typeDenylist suppresses primitives, built-ins, and common framework
// identifiers that would otherwise produce obvious false-positive "uses"
// candidates. Lookups are case-sensitive.
var typeDenylist = map[string]bool{
	// TypeScript primitives and special types
	"string": true, "number": true, "boolean": true, "any": true,
	"unknown": true, "never": true, "void": true, "null": true,
	"undefined": true, "object": true, "symbol": true, "bigint": true,
	"this": true, "true": true, "false": true,

	// Utility types
	"Partial": true, "Required": true, "Readonly": true, "Record": true,
	"Pick": true, "Omit": true, "Exclude": true, "Extract": true,
	"NonNullable": true, "ReturnType": true, "InstanceType": true,
	"Parameters": true, "Awaited": true, "keyof": true, "typeof": true,

	// Built-in objects
	"Object": true, "Function": true, "Array": true, "Promise": true,
	"Map": true, "Set": true, "WeakMap": true, "WeakSet": true,
	"Date": true, "RegExp": true, "Error": true, "String": true,
	"Number": true, "Boolean": true, "Symbol": true, "BigInt": true,
	"JSON": true, "Math": true, "Buffer": true, "Iterable": true,
	"Iterator": true, "Generator": true, "ArrayBuffer": true,
	"Uint8Array": true, "Int32Array": true, "Float64Array": true,

	// DOM / runtime names that show up in annotations
	"Event": true, "HTMLElement": true, "Element": true, "Node": true,
	"Document": true, "Window": true, "Request": true, "Response": true,
	"URL": true, "console": true,

	// Common framework/reactive names
	"Observable": true, "Subject": true, "BehaviorSubject": true,
	"Subscription": true, "EventEmitter": true,
}

// denied reports whether a candidate type name should be suppressed.
// Single-character names are treated as generic type parameters.
func denied(name string) bool {
	if len(name) <= 1 {
		return true
	}
	return typeDenylist[name]
}
