package workload

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fusionscope/internal/ir"
)

type yamlWorkload struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Steps       []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	Stream  uint64  `yaml:"stream"`
	Op      *yamlOp `yaml:"op,omitempty"`
	Execute string  `yaml:"execute,omitempty"`
}

type yamlOp struct {
	Kind    string    `yaml:"kind"`
	DType   string    `yaml:"dtype,omitempty"`
	Name    string    `yaml:"name,omitempty"`
	ID      string    `yaml:"id,omitempty"`
	Drop    string    `yaml:"drop,omitempty"`
	Params  yaml.Node `yaml:"params,omitempty"`
	Inputs  []string  `yaml:"inputs,omitempty"`
	Outputs []string  `yaml:"outputs,omitempty"`
}

// LoadYAML reads and validates a YAML workload. Unknown fields are
// rejected.
func LoadYAML(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workload file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML parses a YAML workload document.
func ParseYAML(data []byte) (*Workload, error) {
	var raw yamlWorkload
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	w := &Workload{Name: raw.Name, Description: raw.Description}
	for i, rs := range raw.Steps {
		step := Step{Stream: ir.StreamID(rs.Stream), Execute: ExecuteMode(rs.Execute)}
		if rs.Op != nil {
			params, err := yamlParams(&rs.Op.Params)
			if err != nil {
				return nil, fmt.Errorf("invalid workload: steps[%d].op.params: %w", i, err)
			}
			step.Op = &OpStep{
				Kind:    rs.Op.Kind,
				DType:   rs.Op.DType,
				Name:    rs.Op.Name,
				ID:      rs.Op.ID,
				Drop:    rs.Op.Drop,
				Params:  params,
				Inputs:  rs.Op.Inputs,
				Outputs: rs.Op.Outputs,
			}
		}
		w.Steps = append(w.Steps, step)
	}

	if err := validate(w); err != nil {
		return nil, fmt.Errorf("invalid workload: %w", err)
	}
	return w, nil
}

func yamlParams(n *yaml.Node) (ir.IRObject, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	v, err := yamlToIR(n)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("line %d: params must be a mapping", n.Line)
	}
	return obj, nil
}

// yamlToIR converts a node to an IR value. Floats keep their literal text
// so "2.0" stays "2.0".
func yamlToIR(n *yaml.Node) (ir.IRValue, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return ir.IRString(n.Value), nil
		case "!!int":
			v, err := strconv.ParseInt(n.Value, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return ir.IRInt(v), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return ir.IRBool(b), nil
		case "!!float":
			return ir.IRString(n.Value), nil
		case "!!null":
			return nil, fmt.Errorf("line %d: null is not a valid parameter value", n.Line)
		default:
			return nil, fmt.Errorf("line %d: unsupported scalar tag %s", n.Line, n.ShortTag())
		}
	case yaml.SequenceNode:
		arr := make(ir.IRArray, len(n.Content))
		for i, c := range n.Content {
			v, err := yamlToIR(c)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case yaml.MappingNode:
		obj := make(ir.IRObject, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlToIR(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj[n.Content[i].Value] = v
		}
		return obj, nil
	case yaml.AliasNode:
		return yamlToIR(n.Alias)
	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}
