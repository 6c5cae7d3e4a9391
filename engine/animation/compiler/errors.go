package compiler

import "errors"

// Compile errors. Every error returned by Compile wraps exactly one of these.
var (
	// ErrInvalidAsset reports a structurally invalid asset (failed validation, duplicate
	// ids, disallowed edges).
	ErrInvalidAsset = errors.New("invalid animation graph asset")
	// ErrConfigIDExhausted reports more clip nodes than byte-sized config ids.
	ErrConfigIDExhausted = errors.New("clip config id space exhausted")
	// ErrDuplicateConfigID reports two clip nodes sharing an explicit config id.
	ErrDuplicateConfigID = errors.New("duplicate clip config id")
	// ErrUnknownParameter reports a condition whose parameter hash matches no parameter.
	ErrUnknownParameter = errors.New("condition references unknown parameter")
	// ErrUnknownClip reports a clip node naming a clip outside the clip table.
	ErrUnknownClip = errors.New("clip node references unknown clip")
	// ErrUnknownNode reports an owner or edge naming a node id that does not exist.
	ErrUnknownNode = errors.New("reference to unknown node")
	// ErrInvalidOwner reports a node placed under an owner of the wrong kind, or an
	// ownership cycle.
	ErrInvalidOwner = errors.New("invalid node owner")
	// ErrFinalPoseMissing reports a graph or state without a connected final-pose node.
	ErrFinalPoseMissing = errors.New("final pose node missing")
	// ErrFinalPoseDuplicate reports a graph or state with more than one final-pose node.
	ErrFinalPoseDuplicate = errors.New("duplicate final pose node")
	// ErrEntryMissing reports a state machine without an entry node or entry target.
	ErrEntryMissing = errors.New("state machine entry missing")
	// ErrEntryAmbiguous reports multiple entry nodes or multiple entry targets.
	ErrEntryAmbiguous = errors.New("state machine entry ambiguous")
	// ErrMalformedTransition reports a transition without exactly one from and one to state.
	ErrMalformedTransition = errors.New("malformed transition")
	// ErrRemainingTimeClip reports a remaining-time condition on a clip outside the
	// transition's from-state.
	ErrRemainingTimeClip = errors.New("remaining time condition references clip outside from-state")
)
