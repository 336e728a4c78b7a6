package genotype

// Clone returns a deep copy of g, fitness included.
func (g *Genotype) Clone() *Genotype {
	out := &Genotype{gene: append([]Locus(nil), g.gene...)}
	if g.fitness != nil {
		f := cloneFitness(*g.fitness)
		out.fitness = &f
	}
	return out
}

func cloneFitness(f Fitness) Fitness {
	out := f
	if f.Objectives != nil {
		out.Objectives = append([]float64(nil), f.Objectives...)
	}
	return out
}
