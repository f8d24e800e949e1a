// Package config loads and validates the two configuration layers this
// engine consumes: the per-SUT declarative JSON document (Document) and
// the ambient framework-level YAML settings document (FrameworkConfig,
// in framework.go).
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// rawDocument mirrors the JSON schema exactly, using pointer fields
// so the validator (not the zero value) decides what "missing" means.
type rawDocument struct {
	SystemName  *string        `json:"system_name"`
	FaultModule *string        `json:"fault_module"`
	Components  []rawComponent `json:"components"`
}

type rawComponent struct {
	ID                 *string    `json:"id"`
	Active             *bool      `json:"active"`
	Targets            []string   `json:"targets"`
	OperableEvents     []rawEvent `json:"operable_events"`
	NonoperableEvents  []rawEvent `json:"nonoperable_events"`
}

type rawEvent struct {
	ID               string                 `json:"id"`
	Instances        *int                   `json:"instances"`
	Fault            *string                `json:"fault"`
	StateTransition  *bool                  `json:"state_transition"`
	ActivationModel  *string                `json:"a_model"`
	ProbabilityModel *string                `json:"p_model"`
	MTTF             *int                   `json:"mttf"`
	Threshold        *int                   `json:"threshold"`
	EffectiveStart   *int                   `json:"effective_start"`
	EffectiveEnd     *int                   `json:"effective_end"`
	StandardDeviation *int                  `json:"standard_deviation"`
	Shape            *float64               `json:"shape"`
	RandomRange      *int                   `json:"random_range"`
	RandomWindowType *string                `json:"random_window_type"`
	UDF1             *string                `json:"udf1"`
	UDF2             *string                `json:"udf2"`
	UDF3             *string                `json:"udf3"`
	UDD              map[string]interface{} `json:"udd"`
}

// Document is the validated, defaulted in-memory form of a per-SUT
// configuration file.
type Document struct {
	SystemName  string
	FaultModule string
	Components  []ComponentDoc
}

// ComponentDoc is one validated, active component entry. Inactive
// components are dropped during load, matching the original's
// get_active_components behavior.
type ComponentDoc struct {
	ID                string
	Targets           []string
	OperableEvents    []EventDoc
	NonoperableEvents []EventDoc
}

// EventDoc is one validated, defaulted event entry, plus its instance
// count (how many independent Event copies to build from it).
type EventDoc struct {
	ID        string
	Instances int
	Fault     string

	StateTransition  bool
	ActivationModel  string
	ProbabilityModel string

	MTTF              int
	Threshold         int
	EffectiveStart    int
	EffectiveEnd      int
	StandardDeviation int
	Shape             float64
	RandomRange       int
	RandomWindowType  string

	UDF1 string
	UDF2 string
	UDF3 string
	UDD  map[string]interface{}
}

// ValidationError aggregates every schema violation found in one
// configuration document, named after its source file, mirroring
// sessionconfig.py's pattern of attaching the file name to every
// ValueError it raises.
type ValidationError struct {
	File   string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, strings.Join(e.Issues, "; "))
}

// Load reads and validates a per-SUT configuration document from path.
// path == "-" reads from stdin, matching the CLI's FILE argument
// convention. A missing/unreadable file is an I/O error (exit code 2 at
// the CLI layer); a malformed or schema-invalid document is a
// *ValidationError (exit code 1).
func Load(path string, stdin io.Reader) (*Document, error) {
	var r io.Reader
	name := path
	if path == "-" {
		r = stdin
		name = "<stdin>"
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{File: name, Issues: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}

	v := &validator{file: name}
	doc := v.build(raw)
	if len(v.issues) > 0 {
		return nil, &ValidationError{File: name, Issues: v.issues}
	}
	return doc, nil
}

type validator struct {
	file   string
	issues []string
}

func (v *validator) fail(format string, args ...interface{}) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

func (v *validator) build(raw rawDocument) *Document {
	doc := &Document{}

	if raw.SystemName == nil {
		v.fail("missing 'system_name' value")
	} else {
		doc.SystemName = *raw.SystemName
	}

	if raw.FaultModule == nil {
		v.fail("missing 'fault_module' value")
	} else {
		doc.FaultModule = strings.TrimSuffix(*raw.FaultModule, ".py")
	}

	if raw.Components == nil {
		v.fail("missing 'components' value")
		return doc
	}

	for _, rc := range raw.Components {
		if rc.ID == nil {
			v.fail("missing 'id' value in 'components' list")
			continue
		}
		if rc.Active == nil {
			v.fail("missing 'active' value in 'components' list for %q", *rc.ID)
			continue
		}
		if rc.Targets == nil {
			v.fail("missing 'targets' value in 'components' list for %q", *rc.ID)
			continue
		}
		if !*rc.Active {
			continue
		}
		if len(rc.Targets) == 0 {
			v.fail("invalid 'targets' value (empty list) for %q", *rc.ID)
			continue
		}

		cd := ComponentDoc{ID: *rc.ID, Targets: rc.Targets}
		cd.OperableEvents = v.buildEvents(*rc.ID, rc.OperableEvents)
		cd.NonoperableEvents = v.buildEvents(*rc.ID, rc.NonoperableEvents)
		doc.Components = append(doc.Components, cd)
	}

	return doc
}

func (v *validator) buildEvents(componentID string, raws []rawEvent) []EventDoc {
	var out []EventDoc
	for _, re := range raws {
		if re.ID == "" {
			v.fail("missing 'id' value for event in component %q", componentID)
			continue
		}

		instances := 1
		if re.Instances != nil {
			instances = *re.Instances
			if instances < 0 {
				v.fail("invalid 'instances' value for event %q", re.ID)
				continue
			}
		}

		if re.Fault == nil {
			v.fail("missing 'fault' value for event %q", re.ID)
			continue
		}
		if re.ActivationModel == nil {
			v.fail("missing 'a_model' value for event %q", re.ID)
			continue
		}

		ed := EventDoc{
			ID:               re.ID,
			Instances:        instances,
			Fault:            *re.Fault,
			ActivationModel:  *re.ActivationModel,
			ProbabilityModel: "",
			MTTF:             1,
			Threshold:        0,
			EffectiveStart:   -1,
			EffectiveEnd:     -1,
			StandardDeviation: 1,
			Shape:            1,
			RandomRange:      1,
			RandomWindowType: "fixed",
		}

		if re.StateTransition != nil {
			ed.StateTransition = *re.StateTransition
		}
		if re.ProbabilityModel != nil {
			ed.ProbabilityModel = *re.ProbabilityModel
		}
		if re.MTTF != nil {
			ed.MTTF = *re.MTTF
		}
		if re.Threshold != nil {
			ed.Threshold = *re.Threshold
		}
		if re.EffectiveStart != nil {
			ed.EffectiveStart = *re.EffectiveStart
		}
		if re.EffectiveEnd != nil {
			ed.EffectiveEnd = *re.EffectiveEnd
		}
		if re.StandardDeviation != nil {
			ed.StandardDeviation = *re.StandardDeviation
		}
		if re.Shape != nil {
			ed.Shape = *re.Shape
		}
		if re.RandomRange != nil {
			ed.RandomRange = *re.RandomRange
		}
		if re.RandomWindowType != nil {
			ed.RandomWindowType = *re.RandomWindowType
		}
		if re.UDF1 != nil {
			ed.UDF1 = *re.UDF1
		}
		if re.UDF2 != nil {
			ed.UDF2 = *re.UDF2
		}
		if re.UDF3 != nil {
			ed.UDF3 = *re.UDF3
		}
		ed.UDD = re.UDD

		v.validateEvent(ed)
		out = append(out, ed)
	}
	return out
}

func (v *validator) validateEvent(e EventDoc) {
	if e.ActivationModel != "recurring" && e.ActivationModel != "singular" {
		v.fail("invalid 'a_model' value %q for event %q", e.ActivationModel, e.ID)
	}
	switch e.ProbabilityModel {
	case "exponential", "normal", "weibull", "random", "deterministic", "":
	default:
		v.fail("invalid 'p_model' value %q for event %q", e.ProbabilityModel, e.ID)
	}
	if e.RandomWindowType != "sliding" && e.RandomWindowType != "fixed" {
		v.fail("invalid 'random_window_type' value %q for event %q", e.RandomWindowType, e.ID)
	}
	if e.MTTF <= 0 {
		v.fail("invalid 'mttf' value %d for event %q", e.MTTF, e.ID)
	}
	if e.Threshold < 0 {
		v.fail("invalid 'threshold' value %d for event %q", e.Threshold, e.ID)
	}
	if e.EffectiveStart < -1 {
		v.fail("invalid 'effective_start' value %d for event %q", e.EffectiveStart, e.ID)
	}
	if e.EffectiveEnd < -1 {
		v.fail("invalid 'effective_end' value %d for event %q", e.EffectiveEnd, e.ID)
	}
	if e.StandardDeviation <= 0 {
		v.fail("invalid 'standard_deviation' value %d for event %q", e.StandardDeviation, e.ID)
	}
	if e.Shape <= 0 {
		v.fail("invalid 'shape' value %v for event %q", e.Shape, e.ID)
	}
	if e.RandomRange <= 0 {
		v.fail("invalid 'random_range' value %d for event %q", e.RandomRange, e.ID)
	}
}
