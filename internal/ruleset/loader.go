package ruleset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/the-sms-must-flow/internal/common"
)

// document mirrors the on-disk ruleset shape. Pointers distinguish missing
// keys from zero values.
type document struct {
	Rules *[]ruleDoc `yaml:"rules" json:"rules"`
}

type ruleDoc struct {
	Senders  []string     `yaml:"senders" json:"senders"`
	Patterns []patternDoc `yaml:"patterns" json:"patterns"`
}

type patternDoc struct {
	Regex      *string             `yaml:"regex" json:"regex"`
	SMSType    *string             `yaml:"sms_type" json:"sms_type"`
	DataFields map[string]fieldDoc `yaml:"data_fields" json:"data_fields"`
}

type fieldDoc struct {
	GroupID *int         `yaml:"group_id" json:"group_id"`
	Rules   []subRuleDoc `yaml:"rules" json:"rules"`
}

type subRuleDoc struct {
	Match    *string `yaml:"match" json:"match"`
	Type     *string `yaml:"type" json:"type"`
	Position *scalar `yaml:"position" json:"position"`
}

// scalar accepts a string or a number, so positions may be written either way.
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*s = scalar(t)
	case float64:
		*s = scalar(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	return nil
}

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

// LoadFile reads a ruleset document from disk. Files ending in .json are
// decoded as JSON, everything else as YAML.
func LoadFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(bytes.NewReader(data))
	}
	return Load(bytes.NewReader(data))
}

// Load decodes a YAML (or JSON-compatible YAML) ruleset document.
func Load(r io.Reader) (*Ruleset, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", common.ErrInvalidRuleset)
		}
		return nil, fmt.Errorf("%w: failed to parse yaml: %v", common.ErrInvalidRuleset, err)
	}
	return fromDocument(doc)
}

// LoadJSON decodes a JSON ruleset document.
func LoadJSON(r io.Reader) (*Ruleset, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse json: %v", common.ErrInvalidRuleset, err)
	}
	return fromDocument(doc)
}

func fromDocument(doc document) (*Ruleset, error) {
	if doc.Rules == nil {
		return nil, fmt.Errorf("%w: missing rules", common.ErrInvalidRuleset)
	}

	var problems []error
	specs := make([]RuleSpec, 0, len(*doc.Rules))

	for i, rd := range *doc.Rules {
		if len(rd.Senders) == 0 {
			problems = append(problems, fmt.Errorf("rules[%d]: missing senders", i))
		}
		if rd.Patterns == nil {
			problems = append(problems, fmt.Errorf("rules[%d]: missing patterns", i))
		}

		spec := RuleSpec{Senders: rd.Senders}
		for j, pd := range rd.Patterns {
			ps, errs := patternSpec(pd, fmt.Sprintf("rules[%d].patterns[%d]", i, j))
			problems = append(problems, errs...)
			spec.Patterns = append(spec.Patterns, ps)
		}
		specs = append(specs, spec)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidRuleset, errors.Join(problems...))
	}

	return New(specs)
}

func patternSpec(pd patternDoc, where string) (PatternSpec, []error) {
	var problems []error
	ps := PatternSpec{DataFields: make(map[string]FieldSpec, len(pd.DataFields))}

	if pd.Regex == nil {
		problems = append(problems, fmt.Errorf("%s: missing regex", where))
	} else {
		ps.Regex = *pd.Regex
	}
	if pd.SMSType == nil {
		problems = append(problems, fmt.Errorf("%s: missing sms_type", where))
	} else {
		ps.SMSType = *pd.SMSType
	}

	for name, fd := range pd.DataFields {
		if fd.GroupID == nil {
			problems = append(problems, fmt.Errorf("%s.data_fields.%s: missing group_id", where, name))
			continue
		}
		field := FieldSpec{GroupID: *fd.GroupID}
		for k, sd := range fd.Rules {
			if sd.Type == nil {
				problems = append(problems, fmt.Errorf("%s.data_fields.%s.rules[%d]: missing type", where, name, k))
				continue
			}
			sub := SubRule{Match: sd.Match, Type: *sd.Type}
			if sd.Position != nil {
				sub.Position = string(*sd.Position)
			}
			field.Rules = append(field.Rules, sub)
		}
		ps.DataFields[name] = field
	}

	return ps, problems
}
