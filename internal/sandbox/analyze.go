package sandbox

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

// Reviewer produces a free-form review of a snippet.
type Reviewer interface {
	Review(ctx context.Context, language, code string) (string, error)
}

type syntaxRules struct {
	lineComment  string
	blockComment bool
	indentBlocks bool
	function     *regexp.Regexp
	loop         *regexp.Regexp
	conditional  *regexp.Regexp
}

var (
	braceLoop        = regexp.MustCompile(`\b(for|while)\s*\(|\bdo\s*\{`)
	braceConditional = regexp.MustCompile(`\bif\s*\(|\bswitch\s*\(|\?\s*[^:]+:`)
	sortCall         = regexp.MustCompile(`\bsorted\(|\.sort\(|\bsort\(|Arrays\.sort|Collections\.sort|std::sort`)
)

var rules = map[string]syntaxRules{
	Python: {
		lineComment:  "#",
		indentBlocks: true,
		function:     regexp.MustCompile(`^\s*(async\s+)?def\s+\w+`),
		loop:         regexp.MustCompile(`^\s*(async\s+)?(for|while)\b`),
		conditional:  regexp.MustCompile(`^\s*(if|elif)\b`),
	},
	JavaScript: {
		lineComment:  "//",
		blockComment: true,
		function:     regexp.MustCompile(`\bfunction\b|=>`),
		loop:         braceLoop,
		conditional:  braceConditional,
	},
	Java: {
		lineComment:  "//",
		blockComment: true,
		function:     regexp.MustCompile(`^\s*(public|private|protected|static|final|synchronized|\s)*[\w<>\[\],]+\s+\w+\s*\([^;]*\)\s*(throws\s+[\w.,\s]+)?\{?\s*$`),
		loop:         braceLoop,
		conditional:  braceConditional,
	},
	Cpp: {
		lineComment:  "//",
		blockComment: true,
		function:     regexp.MustCompile(`^\s*[\w:<>,*&\s]+\s+[\w:]+\s*\([^;]*\)\s*(const\s*)?\{?\s*$`),
		loop:         braceLoop,
		conditional:  braceConditional,
	},
}

// Metrics computes static line and structure counts for code. Loop nesting
// follows indentation for Python and brace depth elsewhere.
func Metrics(language, code string) models.CodeMetrics {
	var m models.CodeMetrics

	lang, ok := Lookup(language)
	if !ok {
		return m
	}
	r := rules[lang.Name]

	var (
		inBlock    bool
		depth      int
		loopLevels []int
		hasSort    bool
	)

	lines := strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	m.TotalLines = len(lines)

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			m.BlankLines++
			continue
		case inBlock:
			m.CommentLines++
			if strings.Contains(line, "*/") {
				inBlock = false
			}
			continue
		case strings.HasPrefix(line, r.lineComment):
			m.CommentLines++
			continue
		case r.blockComment && strings.HasPrefix(line, "/*"):
			m.CommentLines++
			inBlock = !strings.Contains(line[2:], "*/")
			continue
		}

		m.CodeLines++
		codePart := stripTrailingComment(raw, r.lineComment)

		level := depth - leadingClosers(line)
		if r.indentBlocks {
			level = indentWidth(raw)
		}
		for len(loopLevels) > 0 && loopLevels[len(loopLevels)-1] >= level {
			loopLevels = loopLevels[:len(loopLevels)-1]
		}

		isLoop := r.loop.MatchString(codePart)
		isConditional := r.conditional.MatchString(codePart)
		if !isLoop && !isConditional {
			m.Functions += len(r.function.FindAllStringIndex(codePart, -1))
		}
		if isConditional {
			m.Conditionals++
		}
		if isLoop {
			m.Loops++
			loopLevels = append(loopLevels, level)
			if len(loopLevels) > m.MaxLoopNesting {
				m.MaxLoopNesting = len(loopLevels)
			}
		}
		if sortCall.MatchString(codePart) {
			hasSort = true
		}

		if !r.indentBlocks {
			depth += strings.Count(codePart, "{") - strings.Count(codePart, "}")
			if depth < 0 {
				depth = 0
			}
		}
	}

	m.Complexity = complexity(m.MaxLoopNesting, hasSort)
	return m
}

func complexity(nesting int, hasSort bool) string {
	switch {
	case nesting == 0 && hasSort:
		return "O(n log n)"
	case nesting == 0:
		return "O(1)"
	case nesting == 1 && hasSort:
		return "O(n log n)"
	case nesting == 1:
		return "O(n)"
	default:
		return fmt.Sprintf("O(n^%d)", nesting)
	}
}

func stripTrailingComment(line, marker string) string {
	if i := strings.Index(line, marker); i >= 0 {
		return line[:i]
	}
	return line
}

func leadingClosers(line string) int {
	n := 0
	for _, ch := range line {
		if ch != '}' {
			break
		}
		n++
	}
	return n
}

func indentWidth(line string) int {
	w := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

// Suggestions turns metrics into review hints.
func Suggestions(m models.CodeMetrics) []string {
	s := make([]string, 0)
	if m.MaxLoopNesting >= 2 {
		s = append(s, fmt.Sprintf("Loops are nested %d deep (%s); a map or a sort first may remove a level.", m.MaxLoopNesting, m.Complexity))
	}
	if m.CodeLines > 20 && m.CommentLines == 0 {
		s = append(s, "No comments found; explain the non-obvious steps.")
	}
	if m.CodeLines > 40 && m.Functions <= 1 {
		s = append(s, "Consider splitting the code into smaller functions.")
	}
	if m.Conditionals > 10 {
		s = append(s, "Many branches; a lookup table or early returns may simplify the flow.")
	}
	return s
}

// Analyze reports metrics, a syntax check from the language toolchain and,
// when a reviewer is configured, an AI review. Missing toolchains leave
// SyntaxValid unset rather than failing.
func (r *Runner) Analyze(ctx context.Context, req models.AnalyzeRequest, reviewer Reviewer) (models.AnalysisResult, error) {
	lang, ok := Lookup(req.Language)
	if !ok {
		return models.AnalysisResult{}, fmt.Errorf("unsupported language: %s", req.Language)
	}

	metrics := Metrics(lang.Name, req.Code)
	result := models.AnalysisResult{
		Language:    lang.Name,
		Metrics:     metrics,
		Suggestions: Suggestions(metrics),
	}

	valid, msg := r.checkSyntax(ctx, lang, req.Code)
	result.SyntaxValid = valid
	result.SyntaxMessage = msg

	if reviewer != nil {
		review, err := reviewer.Review(ctx, lang.Name, req.Code)
		if err != nil {
			log.Printf("analyze: AI review failed: %v", err)
		} else {
			result.AIReview = review
		}
	}
	return result, nil
}

func (r *Runner) checkSyntax(ctx context.Context, lang Language, code string) (*bool, string) {
	if _, err := exec.LookPath(lang.Tool); err != nil {
		return nil, "Syntax check unavailable: " + lang.Tool + " is not installed"
	}

	if err := r.acquire(ctx); err != nil {
		return nil, "Syntax check cancelled"
	}
	defer r.release()

	id, err := uniqueID()
	if err != nil {
		return nil, "Syntax check unavailable"
	}
	dir, err := os.MkdirTemp(r.cfg.WorkDir, "check_"+id+"_")
	if err != nil {
		return nil, "Syntax check unavailable"
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("sandbox: cleanup of %s failed: %v", dir, err)
		}
	}()

	fileName := "code_" + id + lang.Extension
	if lang.Name == Java {
		fileName = "Main_" + id + lang.Extension
		code = RewriteJava(code, "Main_"+id)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		return nil, "Syntax check unavailable"
	}

	var args []string
	switch lang.Name {
	case Python:
		args = []string{"python3", "-c", "import ast,sys; ast.parse(open(sys.argv[1]).read(), sys.argv[1])", path}
	case JavaScript:
		args = []string{"node", "--check", path}
	case Java:
		args = []string{"javac", "-d", dir, path}
	case Cpp:
		args = []string{"g++", "-fsyntax-only", path}
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	out, err := r.run(ctx, dir, "", args[0], args[1:]...)
	if err != nil || out.timedOut {
		return nil, "Syntax check unavailable"
	}

	valid := out.exitCode == 0
	if valid {
		return &valid, "No syntax errors found"
	}
	return &valid, hideWorkDir(diagnostics(out), dir)
}
