package compose

import "strings"

// Stage is one node of the filter graph: a filter expression wired between
// named pads. Building the graph as typed stages keeps escaping and pad
// naming in one place; serialization to the transcoder's textual syntax is
// the final isolated step.
type Stage struct {
	Inputs  []string
	Filter  string
	Outputs []string
}

type Graph struct{ stages []Stage }

func (g *Graph) Add(inputs []string, filter string, outputs ...string) {
	g.stages = append(g.stages, Stage{Inputs: inputs, Filter: filter, Outputs: outputs})
}

// String serializes the graph in stage order. Stage order is insertion
// order, so identical inputs produce byte-identical graph text.
func (g *Graph) String() string {
	var b strings.Builder
	for i, st := range g.stages {
		if i > 0 {
			b.WriteByte(';')
		}
		for _, in := range st.Inputs {
			b.WriteByte('[')
			b.WriteString(in)
			b.WriteByte(']')
		}
		b.WriteString(st.Filter)
		for _, out := range st.Outputs {
			b.WriteByte('[')
			b.WriteString(out)
			b.WriteByte(']')
		}
	}
	return b.String()
}
