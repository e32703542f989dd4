package ometa

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config map[string]*cfgVal

// NewConfig creates a new configuration object primed with all the
// default values expected by the engine, the grammar compiler and
// the action evaluator.
func NewConfig() *Config {
	m := make(Config)
	// maximum nesting of rule applications before giving up
	m.SetInt("engine.max_depth", 5000)
	// log every rule application, memo hit and left recursion growth
	m.SetBool("engine.trace", false)
	// grammars without an explicit parent inherit the built-in rules
	m.SetBool("grammar.builtins", true)
	// how many compiled actions the javascript evaluator keeps around
	m.SetInt("jsaction.cache_size", 256)
	// interrupt actions running for longer than this, 0 disables it
	m.SetInt("jsaction.timeout_ms", 0)
	return &m
}

// Debug writes all the settings and their values to `w`
func (c *Config) Debug(w io.Writer) {
	fmt.Fprintln(w, "Configuration")

	keys := make([]string, 0, len(*c))
	width := 0
	for k := range *c {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "%s%s : %s\n", k, strings.Repeat(" ", width-len(k)), (*c)[k].String())
	}
}

// LoadYAML overrides settings with the ones found in `data`.  Nested
// mappings are flattened with dots, so `engine: {max_depth: 10}` sets
// `engine.max_depth`.  Keys that don't exist in the configuration
// and values of the wrong type are errors.
func (c *Config) LoadYAML(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("can't read configuration: %w", err)
	}
	return c.load("", doc)
}

func (c *Config) load(prefix string, doc map[string]any) error {
	for k, v := range doc {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			if err := c.load(path, sub); err != nil {
				return err
			}
			continue
		}
		if err := c.Set(path, v); err != nil {
			return err
		}
	}
	return nil
}

// Set assigns `v` to an existing setting, checking that it has the
// setting's type
func (c *Config) Set(path string, v any) error {
	val, ok := (*c)[path]
	if !ok {
		return fmt.Errorf("unknown setting `%s`", path)
	}
	switch val.typ {
	case cfgValType_Bool:
		if b, ok := v.(bool); ok {
			val.asBool = b
			return nil
		}
	case cfgValType_Int:
		if i, ok := v.(int); ok {
			val.asInt = i
			return nil
		}
	case cfgValType_String:
		if s, ok := v.(string); ok {
			val.asString = s
			return nil
		}
	}
	return fmt.Errorf("setting `%s` expects %s, got %T", path, val.typ, v)
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
		cfgValType_String:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

// assignType prevents a setting from silently changing its type
func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("Can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (v *cfgVal) String() string {
	switch v.typ {
	case cfgValType_Bool:
		return fmt.Sprintf("%t (bool)", v.asBool)
	case cfgValType_Int:
		return fmt.Sprintf("%d (int)", v.asInt)
	case cfgValType_String:
		return fmt.Sprintf("%s (string)", v.asString)
	case cfgValType_Undefined:
		return "(undefined)"
	default:
		panic(fmt.Sprintf("unknown cfgVal type: %v", v.typ))
	}
}

func (c *Config) setting(path string) *cfgVal {
	if val, ok := (*c)[path]; ok {
		return val
	}
	val := &cfgVal{}
	(*c)[path] = val
	return val
}

func (c *Config) SetBool(path string, v bool) {
	val := c.setting(path)
	val.assignType(cfgValType_Bool)
	val.asBool = v
}

func (c *Config) SetInt(path string, v int) {
	val := c.setting(path)
	val.assignType(cfgValType_Int)
	val.asInt = v
}

func (c *Config) SetString(path string, v string) {
	val := c.setting(path)
	val.assignType(cfgValType_String)
	val.asString = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Bool)
		return val.asBool
	}
	panic(fmt.Sprintf("Bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_Int)
		return val.asInt
	}
	panic(fmt.Sprintf("Int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValType_String)
		return val.asString
	}
	panic(fmt.Sprintf("String setting `%s` does not exist", path))
}
