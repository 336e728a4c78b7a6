// Package genotype implements fixed-length paired-bit genotypes and the
// recombination and mutation operators that breed them.
//
// A Genotype owns its gene. Constructors copy their input, accessors hand out
// copies, and operators build every child gene in freshly allocated storage,
// so no two genotypes ever share a backing array.
package genotype

import (
	"fmt"
	"strings"
)

// Fitness is an externally assigned score. Objectives carries optional
// per-objective components; Score is what selection ranks on.
type Fitness struct {
	Score      float64
	Objectives []float64
}

type Genotype struct {
	gene    []Locus
	fitness *Fitness
}

// New builds a genotype from a copy of gene.
func New(gene []Locus) (*Genotype, error) {
	if len(gene) == 0 {
		return nil, fmt.Errorf("%w: gene length must be > 0", ErrInvalidArgument)
	}
	for i, l := range gene {
		if !l.Valid() {
			return nil, fmt.Errorf("%w: invalid locus value %d at index %d", ErrInvalidArgument, uint8(l), i)
		}
	}
	return &Genotype{gene: append([]Locus(nil), gene...)}, nil
}

// Filled builds a genotype where every locus holds l.
func Filled(length int, l Locus) (*Genotype, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: gene length must be > 0, got %d", ErrInvalidArgument, length)
	}
	if !l.Valid() {
		return nil, fmt.Errorf("%w: invalid locus value %d", ErrInvalidArgument, uint8(l))
	}
	gene := make([]Locus, length)
	for i := range gene {
		gene[i] = l
	}
	return &Genotype{gene: gene}, nil
}

func (g *Genotype) Len() int {
	return len(g.gene)
}

func (g *Genotype) At(i int) Locus {
	return g.gene[i]
}

// Gene returns a copy of the locus sequence.
func (g *Genotype) Gene() []Locus {
	return append([]Locus(nil), g.gene...)
}

// Fitness reports the assigned fitness; ok is false for unevaluated genotypes.
func (g *Genotype) Fitness() (Fitness, bool) {
	if g.fitness == nil {
		return Fitness{}, false
	}
	return cloneFitness(*g.fitness), true
}

func (g *Genotype) SetFitness(f Fitness) {
	c := cloneFitness(f)
	g.fitness = &c
}

// ClearFitness marks the genotype as unevaluated.
func (g *Genotype) ClearFitness() {
	g.fitness = nil
}

// Equal compares genes only; fitness is ignored.
func (g *Genotype) Equal(other *Genotype) bool {
	if g == nil || other == nil {
		return g == other
	}
	if len(g.gene) != len(other.gene) {
		return false
	}
	for i := range g.gene {
		if g.gene[i] != other.gene[i] {
			return false
		}
	}
	return true
}

// String renders the gene as a compact bit string, two characters per locus.
func (g *Genotype) String() string {
	var b strings.Builder
	b.Grow(len(g.gene) * 2)
	for _, l := range g.gene {
		hi, lo := l.Bits()
		b.WriteByte(byte('0' + hi))
		b.WriteByte(byte('0' + lo))
	}
	return b.String()
}

// Parse reverses String.
func Parse(s string) (*Genotype, error) {
	if len(s) == 0 || len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: bit string length must be a positive even number, got %d", ErrInvalidArgument, len(s))
	}
	gene := make([]Locus, len(s)/2)
	for i := range gene {
		l, err := NewLocus(int(s[2*i])-'0', int(s[2*i+1])-'0')
		if err != nil {
			return nil, fmt.Errorf("locus %d: %w", i, err)
		}
		gene[i] = l
	}
	return &Genotype{gene: gene}, nil
}
