package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/compiler"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the compiled form of an asset",
		Long: `Compiles one asset file and prints its parameters with their name hashes, its
clip table and the node tree with clip config ids, state indices and transitions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := compiler.LoadAsset(args[0])
			if err != nil {
				return err
			}
			g, err := compiler.NewCompiler(compiler.WithLogger(a.logger)).Compile(asset)
			if err != nil {
				return err
			}
			printGraph(cmd.OutOrStdout(), g)
			return nil
		},
	}
}

// printGraph writes a readable dump of a compiled graph.
func printGraph(w io.Writer, g *graph.Graph) {
	fmt.Fprintf(w, "graph %q\n", g.Name)
	fmt.Fprintf(w, "  asset id %s\n", g.AssetID)

	fmt.Fprintln(w, "parameters")
	for i, d := range g.Parameters.Bools {
		fmt.Fprintf(w, "  bool[%d]  %-16s hash %016x default %t\n", i, d.Name, d.Hash, d.Default)
	}
	for i, d := range g.Parameters.Ints {
		fmt.Fprintf(w, "  int[%d]   %-16s hash %016x default %d\n", i, d.Name, d.Hash, d.Default)
	}
	for i, d := range g.Parameters.Floats {
		fmt.Fprintf(w, "  float[%d] %-16s hash %016x default %g\n", i, d.Name, d.Hash, d.Default)
	}

	fmt.Fprintln(w, "clips")
	for i, c := range g.Clips {
		fmt.Fprintf(w, "  [%d] %s %gs\n", i, c.Name, c.Length)
	}

	fmt.Fprintln(w, "nodes")
	printNodeGraph(w, g, &g.Nodes, 1)
}

func printNodeGraph(w io.Writer, g *graph.Graph, ng *graph.NodeGraph, depth int) {
	indent := strings.Repeat("  ", depth)

	link := ng.FinalPose.PoseLink
	switch link.NodeType {
	case graph.NodeTypeSingleClip:
		fmt.Fprintf(w, "%sfinal pose <- clip config %d\n", indent, link.LinkID.ID())
	case graph.NodeTypeStateMachine:
		fmt.Fprintf(w, "%sfinal pose <- state machine node %d\n", indent, link.LinkID.ID())
	default:
		fmt.Fprintf(w, "%sfinal pose <- none\n", indent)
	}

	for _, c := range ng.Clips {
		fmt.Fprintf(w, "%sclip config %d: %s (clip %d, %gs) speed %g loop %t\n",
			indent, c.ConfigID, g.Clips[c.ClipIndex].Name, c.ClipIndex, c.ClipLength, c.Speed, c.Loop)
	}
	for i, n := range ng.StateMachines {
		sm := &g.StateMachines[n.StateMachineIndex]
		fmt.Fprintf(w, "%sstate machine node %d: sm[%d] %q default %d\n",
			indent, i, n.StateMachineIndex, sm.Name, sm.DefaultState)
		for si := range sm.States {
			st := &sm.States[si]
			fmt.Fprintf(w, "%s  state %d %q\n", indent, si, st.Name)
			printNodeGraph(w, g, &st.Nodes, depth+2)
			for _, t := range st.Transitions {
				printTransition(w, g, sm, &t, depth+2)
			}
		}
	}
}

func printTransition(w io.Writer, g *graph.Graph, sm *graph.StateMachine, t *graph.Transition, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s-> %d %q duration %gs %s priority %d", indent, t.To, sm.States[t.To].Name, t.Duration, t.Mode, t.Priority)
	if t.HasEndTime {
		fmt.Fprintf(w, " after %gs", t.EndTime)
	}
	fmt.Fprintln(w)
	for _, c := range t.Conditions {
		fmt.Fprintf(w, "%s   if %s\n", indent, describeCondition(g, c))
	}
}

// describeCondition renders a condition with parameter names instead of slots.
func describeCondition(g *graph.Graph, c graph.Condition) string {
	p := &g.Parameters
	switch v := c.Value.(type) {
	case graph.BoolCondition:
		return fmt.Sprintf("%s %s %t", p.Bools[v.ParameterIndex].Name, c.Op, v.Value)
	case graph.IntCondition:
		return fmt.Sprintf("%s %s %d", p.Ints[v.ParameterIndex].Name, c.Op, v.Value)
	case graph.FloatCondition:
		return fmt.Sprintf("%s %s %g", p.Floats[v.ParameterIndex].Name, c.Op, v.Value)
	}
	return c.String()
}
