// Package sandbox compiles and runs untrusted snippets as child processes
// with a wall-clock limit, and answers a small allow-list of shell commands.
package sandbox

import "strings"

// Language describes how a snippet in one language is stored and run.
type Language struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Compiled  bool   `json:"compiled"`
	// Tool is the binary that has to be on PATH.
	Tool string `json:"tool"`
}

const (
	Python     = "python"
	JavaScript = "javascript"
	Java       = "java"
	Cpp        = "cpp"
)

var languages = map[string]Language{
	Python:     {Name: Python, Extension: ".py", Tool: "python3"},
	JavaScript: {Name: JavaScript, Extension: ".js", Tool: "node"},
	Java:       {Name: Java, Extension: ".java", Compiled: true, Tool: "javac"},
	Cpp:        {Name: Cpp, Extension: ".cpp", Compiled: true, Tool: "g++"},
}

var aliases = map[string]string{
	"py":      Python,
	"python3": Python,
	"js":      JavaScript,
	"node":    JavaScript,
	"nodejs":  JavaScript,
	"c++":     Cpp,
	"cxx":     Cpp,
}

// Lookup resolves a language name or alias, case-insensitively.
func Lookup(name string) (Language, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	lang, ok := languages[key]
	return lang, ok
}

// Languages lists the supported languages in a stable order.
func Languages() []Language {
	return []Language{languages[Python], languages[JavaScript], languages[Java], languages[Cpp]}
}
