package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumGrammar = `grammar = expr:e spaces end -> e
expr = expr:l "+" num:r -> [l, r]
     | num
num = spaces <digit+>:ds -> parseInt(ds, 10)
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	grammarPath := writeFile(t, dir, "sum.ometa", sumGrammar)
	inputPath := writeFile(t, dir, "input.txt", "1 + 2")

	for _, test := range []struct {
		Name     string
		Format   string
		Expected string
	}{
		{
			Name:     "Tree",
			Format:   formatTree,
			Expected: "List<2>\n├── 1\n└── 2\n",
		},
		{
			Name:     "JSON",
			Format:   formatJSON,
			Expected: "[\n  1,\n  2\n]\n",
		},
		{
			Name:     "YAML",
			Format:   formatYAML,
			Expected: "- 1\n- 2\n",
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			params := &parseParams{grammarPath: grammarPath, rule: "grammar", format: test.Format}
			code := parse([]string{inputPath}, &rootParams{}, params, &stdout, &stderr)
			require.Equal(t, 0, code, stderr.String())
			assert.Equal(t, test.Expected, stdout.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()
	grammarPath := writeFile(t, dir, "sum.ometa", sumGrammar)
	inputPath := writeFile(t, dir, "input.txt", "1 +")

	t.Run("Input that doesn't match", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		params := &parseParams{grammarPath: grammarPath, rule: "grammar", format: formatTree}
		code := parse([]string{inputPath}, &rootParams{}, params, &stdout, &stderr)
		assert.Equal(t, 1, code)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "1 +")
		assert.Contains(t, stderr.String(), "^")
	})

	t.Run("Unknown output format", func(t *testing.T) {
		ok := writeFile(t, dir, "ok.txt", "1")
		var stdout, stderr bytes.Buffer
		params := &parseParams{grammarPath: grammarPath, rule: "grammar", format: "xml"}
		code := parse([]string{ok}, &rootParams{}, params, &stdout, &stderr)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr.String(), "unknown output format `xml`")
	})

	t.Run("Missing grammar", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		params := &parseParams{grammarPath: filepath.Join(dir, "nope.ometa"), rule: "grammar", format: formatTree}
		code := parse([]string{inputPath}, &rootParams{}, params, &stdout, &stderr)
		assert.Equal(t, 1, code)
		assert.NotEmpty(t, stderr.String())
	})

	t.Run("Invalid log level", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		params := &parseParams{grammarPath: grammarPath, rule: "grammar", format: formatTree}
		code := parse([]string{inputPath}, &rootParams{logLevel: "loud"}, params, &stdout, &stderr)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr.String(), "invalid log level: loud")
	})
}

func TestParseWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	grammarPath := writeFile(t, dir, "sum.ometa", sumGrammar)
	inputPath := writeFile(t, dir, "input.txt", "1 + 2 + 3")
	configPath := writeFile(t, dir, "config.yaml", "engine:\n  max_depth: 2\n")

	var stdout, stderr bytes.Buffer
	params := &parseParams{grammarPath: grammarPath, rule: "grammar", format: formatTree}
	code := parse([]string{inputPath}, &rootParams{configFile: configPath}, params, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "maximum")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "sum.ometa", sumGrammar)
	bad := writeFile(t, dir, "bad.ometa", "a = b\n")

	var stdout, stderr bytes.Buffer
	code := check([]string{good, bad}, &rootParams{}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Equal(t, good+": ok (3 rules)\n", stdout.String())
	assert.Contains(t, stderr.String(), bad+": ")
	assert.Contains(t, stderr.String(), "no rule named `b`")
}

func TestPrintAst(t *testing.T) {
	dir := t.TempDir()
	grammarPath := writeFile(t, dir, "tiny.ometa", "a = 'x' b*\n")

	t.Run("Source", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := printAst([]string{grammarPath}, &astParams{source: true}, &stdout, &stderr)
		require.Equal(t, 0, code, stderr.String())
		assert.Equal(t, "a = 'x' b*\n", stdout.String())
	})

	t.Run("Tree", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := printAst([]string{grammarPath}, &astParams{}, &stdout, &stderr)
		require.Equal(t, 0, code, stderr.String())
		assert.Contains(t, stdout.String(), "Grammar(tiny)")
		assert.Contains(t, stdout.String(), "Rule(a)")
	})

	t.Run("Syntax error", func(t *testing.T) {
		broken := writeFile(t, dir, "broken.ometa", "a = 'x\n")
		var stdout, stderr bytes.Buffer
		code := printAst([]string{broken}, &astParams{}, &stdout, &stderr)
		assert.Equal(t, 1, code)
		assert.NotEmpty(t, stderr.String())
	})
}

func TestGrammarName(t *testing.T) {
	assert.Equal(t, "json", grammarName("/tmp/grammars/json.ometa"))
	assert.Equal(t, "plain", grammarName("plain"))
}
