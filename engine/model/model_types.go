package model

// --- Transform & Skeleton Types ---

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32 `yaml:"translation"`
	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32 `yaml:"rotation"`
	// Scale is the scale factor along each axis.
	Scale [3]float32 `yaml:"scale"`
}

// IdentityTransform returns a transform with no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// Name is the bone's identifier (for debugging and animation targeting).
	Name string `yaml:"name"`
	// ParentIndex is the index of the parent bone (-1 for root bones).
	// Parents always precede their children.
	ParentIndex int32 `yaml:"parent"`
	// LocalTransform is the bind pose relative to the parent.
	// Used for bones that a clip does not animate.
	LocalTransform Transform `yaml:"local"`
}

// Skeleton represents a bone hierarchy for skeletal animation.
type Skeleton struct {
	// Bones is the array of all bones in the skeleton.
	Bones []Bone `yaml:"bones"`
	// RootBoneIndices are indices of bones with no parent.
	RootBoneIndices []int32 `yaml:"-"`
	// BoneNameToIndex maps bone names to their indices for quick lookup.
	BoneNameToIndex map[string]int32 `yaml:"-"`
}

// --- Animation Types ---

// AnimationClip represents a single animation (walk, run, attack, etc.).
type AnimationClip struct {
	// Name is the animation identifier.
	Name string `yaml:"name"`
	// Duration is the total length of the animation in seconds.
	Duration float32 `yaml:"duration"`
	// TicksPerSecond is the sample rate the clip was authored at.
	TicksPerSecond float32 `yaml:"ticks_per_second"`
	// Channels contains animation data for each animated bone.
	Channels []AnimationChannel `yaml:"channels"`
	// Events are the discrete markers raised when playback crosses their time.
	Events []ClipEvent `yaml:"events"`
}

// AnimationChannel contains keyframe data for a single bone.
type AnimationChannel struct {
	// BoneIndex is the index of the bone this channel animates.
	BoneIndex int32 `yaml:"bone"`
	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe `yaml:"position"`
	// RotationKeys are keyframes for rotation (quaternion).
	RotationKeys []QuaternionKeyframe `yaml:"rotation"`
	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe `yaml:"scale"`
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32 `yaml:"time"`
	// Value is the 3D vector value at this keyframe.
	Value [3]float32 `yaml:"value"`
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32 `yaml:"time"`
	// Value is the quaternion value at this keyframe (x, y, z, w).
	Value [4]float32 `yaml:"value"`
}

// ClipEvent is a timed marker embedded in a clip with a small payload.
type ClipEvent struct {
	// Time is the clip-local timestamp in seconds.
	Time float32 `yaml:"time"`
	// FunctionName is the token handed to the host's event handler.
	FunctionName string `yaml:"function"`
	// IntParameter is an optional integer payload.
	IntParameter int32 `yaml:"int"`
	// FloatParameter is an optional float payload.
	FloatParameter float32 `yaml:"float"`
	// StringParameter is an optional string payload.
	StringParameter string `yaml:"string"`
}
