package scenario

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// LoadCUE reads a scenario from a CUE file. CUE buys scenario authors
// defaults, comprehensions, and constraint checking on top of the YAML
// schema; the evaluated value must still satisfy the same validation.
//
// The scenario may sit at the top level or under a "scenario" field.
func LoadCUE(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseCUE(path, data)
}

// ParseCUE evaluates CUE source from memory. filename is used in positions.
func ParseCUE(filename string, data []byte) (*Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile CUE: %w", err)
	}
	if sub := v.LookupPath(cue.ParsePath("scenario")); sub.Exists() {
		v = sub
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("scenario not concrete: %w", err)
	}

	// Route through the YAML decoder so CUE and YAML scenarios share one
	// set of field names and one validation pass.
	out, err := cueyaml.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode scenario: %w", err)
	}
	return Parse(out)
}
