package compiler

// NodeKind is the closed set of authored node kinds.
type NodeKind string

const (
	NodeKindClip         NodeKind = "clip"
	NodeKindStateMachine NodeKind = "state_machine"
	NodeKindFinalPose    NodeKind = "final_pose"
	NodeKindEntry        NodeKind = "entry"
	NodeKindState        NodeKind = "state"
	NodeKindTransition   NodeKind = "transition"
)

// ParameterType is the value type of an authored parameter.
type ParameterType string

const (
	ParameterBool  ParameterType = "bool"
	ParameterInt   ParameterType = "int"
	ParameterFloat ParameterType = "float"
)

// ConditionType selects what a condition compares.
type ConditionType string

const (
	ConditionBool          ConditionType = "bool"
	ConditionInt           ConditionType = "int"
	ConditionFloat         ConditionType = "float"
	ConditionRemainingTime ConditionType = "remaining_time"
)

// Asset is the authored form of an animation graph.
//
// Every node of the asset tree lives in the flat Nodes list. Ownership is expressed by
// the Owner field (the id of the owning state machine or state, empty for the
// top-level graph) and data flow by Edges, so the authored tree never holds pointers.
type Asset struct {
	Name       string           `yaml:"name" validate:"required,anim_name"`
	Parameters []ParameterAsset `yaml:"parameters,omitempty" validate:"dive"`
	Clips      []ClipAsset      `yaml:"clips,omitempty" validate:"dive"`
	Nodes      []NodeAsset      `yaml:"nodes" validate:"required,min=1,dive"`
	Edges      []EdgeAsset      `yaml:"edges,omitempty" validate:"dive"`
}

// ParameterAsset declares a parameter and its default value.
type ParameterAsset struct {
	Name string        `yaml:"name" validate:"required,anim_name"`
	Type ParameterType `yaml:"type" validate:"required,oneof=bool int float"`
	// Default must match Type: a bool, an integer or a number. Nil means zero.
	Default any `yaml:"default,omitempty"`
}

// ClipAsset is one entry of the clip table.
type ClipAsset struct {
	Name   string  `yaml:"name" validate:"required"`
	Length float32 `yaml:"length" validate:"gt=0"`
}

// NodeAsset is one authored node. Only the fields of its Kind are read.
type NodeAsset struct {
	ID    string   `yaml:"id" validate:"required,anim_name"`
	Kind  NodeKind `yaml:"kind" validate:"required,oneof=clip state_machine final_pose entry state transition"`
	Owner string   `yaml:"owner,omitempty"`
	// Name is the display name of states and state machines. Defaults to ID.
	Name string `yaml:"name,omitempty"`

	// Clip nodes.
	Clip     string  `yaml:"clip,omitempty"`
	Loop     bool    `yaml:"loop,omitempty"`
	Speed    float32 `yaml:"speed,omitempty" validate:"gte=0"`
	ConfigID uint8   `yaml:"config_id,omitempty"`

	// Transition nodes.
	Priority   uint8            `yaml:"priority,omitempty"`
	HasEndTime bool             `yaml:"has_end_time,omitempty"`
	EndTime    float32          `yaml:"end_time,omitempty" validate:"gte=0"`
	Duration   float32          `yaml:"duration,omitempty" validate:"gte=0"`
	BlendMode  string           `yaml:"blend_mode,omitempty" validate:"omitempty,oneof=linear cubic"`
	Conditions []ConditionAsset `yaml:"conditions,omitempty" validate:"dive"`
}

// ConditionAsset is one authored transition condition.
type ConditionAsset struct {
	Type ConditionType `yaml:"type" validate:"required,oneof=bool int float remaining_time"`
	// Parameter names the parameter of bool, int and float conditions.
	Parameter string `yaml:"parameter,omitempty" validate:"required_unless=Type remaining_time"`
	// Clip is the node id of the clip node of remaining_time conditions.
	Clip string `yaml:"clip,omitempty" validate:"required_if=Type remaining_time"`
	// Ratio measures remaining time as a fraction of the clip length.
	Ratio bool `yaml:"ratio,omitempty"`
	// Op defaults to "==" and is forced to "<=" for remaining_time conditions.
	Op    string `yaml:"op,omitempty" validate:"omitempty,oneof=< <= > >= == !="`
	Value any    `yaml:"value"`
}

// EdgeAsset connects two nodes with the same owner: a clip or state machine into a
// final pose, an entry into a state, a state into a transition, or a transition into
// a state.
type EdgeAsset struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// Clone returns a deep copy of the asset.
func (a *Asset) Clone() *Asset {
	c := *a
	c.Parameters = append([]ParameterAsset(nil), a.Parameters...)
	c.Clips = append([]ClipAsset(nil), a.Clips...)
	c.Edges = append([]EdgeAsset(nil), a.Edges...)
	c.Nodes = make([]NodeAsset, len(a.Nodes))
	for i, n := range a.Nodes {
		n.Conditions = append([]ConditionAsset(nil), n.Conditions...)
		c.Nodes[i] = n
	}
	return &c
}
