package sandbox

import (
	"regexp"
	"strings"
)

var (
	publicClassRe = regexp.MustCompile(`\bpublic\s+(?:final\s+|abstract\s+)*class\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	anyClassRe    = regexp.MustCompile(`\bclass\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	mainMethodRe  = regexp.MustCompile(`\bstatic\s+void\s+main\s*\(`)
	packageRe     = regexp.MustCompile(`(?m)^[ \t]*package[ \t]+[\w.]+[ \t]*;[ \t]*$`)
)

// RewriteJava prepares a Java snippet to compile as className.java.
//
// A public class is renamed to className, along with every other reference
// to its old name. A file without a public class has the class holding main
// renamed instead. A bare list of statements is wrapped in a class with a
// main method, with its import lines hoisted above the class. Package
// declarations are dropped.
func RewriteJava(src, className string) string {
	src = removeMatches(src, packageRe)
	code := maskJava(src)

	if m := publicClassRe.FindStringSubmatchIndex(code); m != nil {
		return renameIdentifier(src, code, src[m[2]:m[3]], className)
	}

	if mainMethodRe.MatchString(code) {
		if name := classWithMain(code); name != "" {
			return renameIdentifier(src, code, name, className)
		}
	}

	if anyClassRe.MatchString(code) && !mainMethodRe.MatchString(code) {
		// Helper classes only; give them a main that does nothing visible.
		return src + "\npublic class " + className + " {\n    public static void main(String[] args) {\n    }\n}\n"
	}

	return wrapStatements(src, className)
}

// renameIdentifier replaces whole-word uses of from with to. Matches are
// found in code, the masked copy of src, so literals and comments keep the
// old name.
func renameIdentifier(src, code, from, to string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(from) + `\b`)

	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(code, -1) {
		b.WriteString(src[last:m[0]])
		b.WriteString(to)
		last = m[1]
	}
	b.WriteString(src[last:])
	return b.String()
}

// removeMatches deletes every match of re that lies outside literals and
// comments.
func removeMatches(src string, re *regexp.Regexp) string {
	code := maskJava(src)

	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(code, -1) {
		b.WriteString(src[last:m[0]])
		last = m[1]
	}
	b.WriteString(src[last:])
	return b.String()
}

// maskJava returns src with the contents of comments, string, char and
// text-block literals blanked to spaces. Offsets and line breaks are
// preserved, so indexes into the result are valid in src.
func maskJava(src string) string {
	b := []byte(src)
	blank := func(from, to int) {
		for k := from; k < to; k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
	}
	closing := func(from int, delim string) int {
		if end := strings.Index(src[from:], delim); end >= 0 {
			return from + end + len(delim)
		}
		return len(src)
	}

	for i := 0; i < len(src); {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			blank(i, i+end)
			i += end
		case strings.HasPrefix(src[i:], "/*"):
			end := closing(i+2, "*/")
			blank(i, end)
			i = end
		case strings.HasPrefix(src[i:], `"""`):
			end := closing(i+3, `"""`)
			blank(i, end)
			i = end
		case src[i] == '"' || src[i] == '\'':
			quote := src[i]
			j := i + 1
			for j < len(src) && src[j] != quote && src[j] != '\n' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(src) && src[j] == quote {
				j++
			}
			if j > len(src) {
				j = len(src)
			}
			blank(i, j)
			i = j
		default:
			i++
		}
	}
	return string(b)
}

// classWithMain returns the name of the class whose body contains the first
// main method.
func classWithMain(src string) string {
	mainIdx := mainMethodRe.FindStringIndex(src)
	if mainIdx == nil {
		return ""
	}

	name := ""
	for _, m := range anyClassRe.FindAllStringSubmatchIndex(src, -1) {
		if m[0] > mainIdx[0] {
			break
		}
		name = src[m[2]:m[3]]
	}
	return name
}

func wrapStatements(src, className string) string {
	var imports, body []string
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "import ") {
			imports = append(imports, strings.TrimSpace(line))
			continue
		}
		body = append(body, line)
	}

	var b strings.Builder
	for _, imp := range imports {
		b.WriteString(imp)
		b.WriteString("\n")
	}
	if len(imports) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("public class ")
	b.WriteString(className)
	b.WriteString(" {\n    public static void main(String[] args) throws Exception {\n")
	for _, line := range body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString("        ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("    }\n}\n")
	return b.String()
}
