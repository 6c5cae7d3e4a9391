package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-animgraph/common"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/model"
)

// DefaultDeltaTime is the simulation step when a scenario does not set one.
const DefaultDeltaTime float32 = 1.0 / 60.0

// Scenario describes an offline simulation: which graph to play, for how long, on
// which skeleton and clips, and which parameters to write at which frames.
type Scenario struct {
	// Graph is the asset path, relative to the scenario file.
	Graph     string  `yaml:"graph" validate:"required"`
	Frames    int     `yaml:"frames" validate:"gt=0"`
	DeltaTime float32 `yaml:"delta_time" validate:"gte=0"`
	// Instances is the number of identical instances to run. Defaults to 1.
	Instances  int    `yaml:"instances" validate:"gte=0"`
	RootMotion string `yaml:"root_motion" validate:"omitempty,oneof=disabled auto manual"`
	// DisableEvents turns off clip event raising.
	DisableEvents bool `yaml:"disable_events"`

	// Skeleton defaults to a single root bone.
	Skeleton []model.Bone          `yaml:"skeleton"`
	Clips    []model.AnimationClip `yaml:"clips"`

	Writes []ParameterWrite `yaml:"writes" validate:"dive"`
}

// ParameterWrite sets a parameter on every instance before the given frame runs.
type ParameterWrite struct {
	Frame int    `yaml:"frame" validate:"gte=0"`
	Name  string `yaml:"name" validate:"required"`
	Type  string `yaml:"type" validate:"required,oneof=bool int float"`
	Value any    `yaml:"value"`
}

// ParseScenario decodes and validates a YAML scenario document.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Scenario: the scenario with defaults applied and writes sorted by frame
//   - error: error if the document is malformed or invalid
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	s.DeltaTime = common.Coalesce(s.DeltaTime, DefaultDeltaTime)
	s.Instances = common.Coalesce(s.Instances, 1)
	s.RootMotion = common.Coalesce(s.RootMotion, "disabled")
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("validate scenario: %w", err)
	}
	for i, w := range s.Writes {
		if _, err := w.convert(); err != nil {
			return nil, fmt.Errorf("write %d (%s): %w", i, w.Name, err)
		}
	}
	sort.SliceStable(s.Writes, func(i, j int) bool { return s.Writes[i].Frame < s.Writes[j].Frame })
	return &s, nil
}

// LoadScenario reads the scenario at path and resolves its graph path against the
// scenario's directory.
//
// Parameters:
//   - path: file path of a YAML scenario
//
// Returns:
//   - *Scenario: the scenario
//   - error: error if the file cannot be read or parsed
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !filepath.IsAbs(s.Graph) {
		s.Graph = filepath.Join(filepath.Dir(path), s.Graph)
	}
	return s, nil
}

// BuildSkeleton returns the scenario's skeleton, or a single root bone.
func (s *Scenario) BuildSkeleton() (*model.Skeleton, error) {
	bones := s.Skeleton
	if len(bones) == 0 {
		bones = []model.Bone{{Name: "root", ParentIndex: -1}}
	}
	return model.NewSkeleton(append([]model.Bone(nil), bones...))
}

// ClipsByName indexes the scenario's clips by name.
func (s *Scenario) ClipsByName() map[string]*model.AnimationClip {
	out := make(map[string]*model.AnimationClip, len(s.Clips))
	for i := range s.Clips {
		out[s.Clips[i].Name] = &s.Clips[i]
	}
	return out
}

// WritesAt returns the writes scheduled for frame, in file order.
func (s *Scenario) WritesAt(frame int) []ParameterWrite {
	lo := sort.Search(len(s.Writes), func(i int) bool { return s.Writes[i].Frame >= frame })
	hi := lo
	for hi < len(s.Writes) && s.Writes[hi].Frame == frame {
		hi++
	}
	return s.Writes[lo:hi]
}

// Bool returns the write's value as a bool.
func (w ParameterWrite) Bool() bool {
	v, _ := w.convert()
	b, _ := v.(bool)
	return b
}

// Int returns the write's value as an int32.
func (w ParameterWrite) Int() int32 {
	v, _ := w.convert()
	n, _ := v.(int32)
	return n
}

// Float returns the write's value as a float32.
func (w ParameterWrite) Float() float32 {
	v, _ := w.convert()
	f, _ := v.(float32)
	return f
}

// convert checks the value against Type and returns it as bool, int32 or float32.
func (w ParameterWrite) convert() (any, error) {
	switch w.Type {
	case "bool":
		b, ok := w.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", w.Value)
		}
		return b, nil
	case "int":
		n, ok := w.Value.(int)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("expected int32, got %v", w.Value)
		}
		return int32(n), nil
	case "float":
		switch x := w.Value.(type) {
		case float64:
			return float32(x), nil
		case int:
			return float32(x), nil
		}
		return nil, fmt.Errorf("expected number, got %T", w.Value)
	}
	return nil, fmt.Errorf("unknown type %q", w.Type)
}
