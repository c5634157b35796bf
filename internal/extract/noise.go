package extract

import "hammy/internal/grammar"

func words(ws ...string) map[string]bool {
	m := make(map[string]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return m
}

var ecmaNoise = words(
	"console.log", "console.error", "console.warn", "console.info", "console.debug",
	"require", "setTimeout", "setInterval", "clearTimeout", "clearInterval",
	"parseInt", "parseFloat", "isNaN", "isFinite", "JSON.parse", "JSON.stringify",
	"Promise.resolve", "Promise.reject", "Promise.all", "Object.keys", "Object.values",
	"Object.assign", "Object.entries", "Array.isArray", "Array.from",
	"Math.floor", "Math.ceil", "Math.round", "Math.random", "Math.max", "Math.min",
	"String", "Number", "Boolean", "Date.now", "Error",
)

// callNoise lists built-ins that never produce call edges.
var callNoise = map[grammar.Language]map[string]bool{
	grammar.JavaScript: ecmaNoise,
	grammar.TypeScript: ecmaNoise,
	grammar.Python: words(
		"print", "len", "range", "str", "int", "float", "bool", "list", "dict", "set",
		"tuple", "type", "isinstance", "issubclass", "hasattr", "getattr", "setattr",
		"super", "enumerate", "zip", "map", "filter", "sorted", "reversed",
		"open", "repr", "abs", "min", "max", "sum", "any", "all", "next", "iter",
	),
	grammar.Go: words(
		"fmt.Println", "fmt.Printf", "fmt.Sprintf", "fmt.Fprintf", "fmt.Errorf",
		"log.Println", "log.Printf", "log.Fatal", "log.Fatalf",
		"make", "append", "len", "cap", "close", "delete", "copy", "new", "panic", "recover",
	),
	grammar.PHP: words(
		"var_dump", "print_r", "echo", "isset", "unset", "empty", "is_null",
		"is_array", "is_string", "is_int", "array_map", "array_filter", "array_merge",
		"count", "strlen", "substr", "strpos", "sprintf", "implode", "explode",
		"json_encode", "json_decode", "intval", "floatval",
	),
}
