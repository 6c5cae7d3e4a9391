package animator

import "github.com/Carmen-Shannon/oxy-animgraph/engine/animation/state_machine"

// StateView is a snapshot of one live animation state.
type StateView struct {
	Index  uint8
	Name   string
	Weight float32
	Time   float32
}

// StateMachineView is a snapshot of one state-machine instance, for tooling and tests.
type StateMachineView struct {
	Index   uint8
	Name    string
	Weight  float32
	Dormant bool

	// Current is the settled state; HasCurrent is false until the first commit.
	Current    uint8
	HasCurrent bool
	// Target is the in-flight transition destination; HasTarget is false when settled.
	Target    uint8
	HasTarget bool

	States []StateView
}

// StateWeight returns the weight of state index, or 0 when it is not live.
func (v StateMachineView) StateWeight(index uint8) float32 {
	for _, s := range v.States {
		if s.Index == index {
			return s.Weight
		}
	}
	return 0
}

func newStateMachineView(m *state_machine.Instance) StateMachineView {
	machine := m.Machine()
	v := StateMachineView{
		Index:   m.Index(),
		Name:    machine.Name,
		Weight:  m.Weight,
		Dormant: m.Dormant(),
		States:  make([]StateView, 0, len(m.States)),
	}
	v.Current, v.HasCurrent = m.CurrentStateIndex()
	v.Target, v.HasTarget = m.TransitionTarget()
	for _, s := range m.States {
		v.States = append(v.States, StateView{
			Index:  s.StateIndex,
			Name:   machine.States[s.StateIndex].Name,
			Weight: s.Weight,
			Time:   s.Time,
		})
	}
	return v
}
