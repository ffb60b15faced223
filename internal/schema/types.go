// Package schema declares the typed columns that variant and call tables are
// made of, and resolves VCF header declarations into those columns.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the semantic type of a column value.
type Type int

const (
	Integer Type = iota
	Float
	String
	Boolean
	Categorical
)

var typeNames = [...]string{"integer", "float", "string", "boolean", "categorical"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType accepts both VCF header type names (Integer, Float, Flag,
// Character, String) and the lower-case names returned by Type.String.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "integer", "int":
		return Integer, nil
	case "float", "double":
		return Float, nil
	case "string", "character", "char":
		return String, nil
	case "flag", "boolean", "bool":
		return Boolean, nil
	case "categorical", "category":
		return Categorical, nil
	}
	return 0, fmt.Errorf("unknown field type %q", s)
}

// ArityKind says how the number of values in a column is determined.
type ArityKind int

const (
	Fixed       ArityKind = iota // exactly N values
	PerAlt                       // one value per alternate allele (Number=A)
	PerAllele                    // one value per allele, ref included (Number=R)
	PerGenotype                  // one value per possible genotype (Number=G)
	Variable                     // any count (Number=.)
)

// Arity is the value count of a column.
type Arity struct {
	Kind ArityKind
	N    int // only meaningful for Fixed
}

// FixedArity returns an arity of exactly n values.
func FixedArity(n int) Arity {
	return Arity{Kind: Fixed, N: n}
}

// IsFixed reports whether every row has the same number of values.
func (a Arity) IsFixed() bool {
	return a.Kind == Fixed
}

func (a Arity) String() string {
	switch a.Kind {
	case Fixed:
		return strconv.Itoa(a.N)
	case PerAlt:
		return "A"
	case PerAllele:
		return "R"
	case PerGenotype:
		return "G"
	default:
		return "."
	}
}

// ParseArity parses a VCF Number attribute. Number=0 (flags) is stored as a
// single boolean value.
func ParseArity(number string) (Arity, error) {
	switch number {
	case "A":
		return Arity{Kind: PerAlt}, nil
	case "R":
		return Arity{Kind: PerAllele}, nil
	case "G":
		return Arity{Kind: PerGenotype}, nil
	case ".", "":
		return Arity{Kind: Variable}, nil
	}
	n, err := strconv.Atoi(number)
	if err != nil || n < 0 {
		return Arity{}, fmt.Errorf("invalid arity %q", number)
	}
	if n == 0 {
		n = 1
	}
	return FixedArity(n), nil
}

// TableKind selects which table a flattener produces.
type TableKind int

const (
	Variants TableKind = iota // one row per record (or per alt when decomposed)
	Calls                     // one row per (record, sample)
	Info                      // variant position plus INFO fields only
)

func (k TableKind) String() string {
	switch k {
	case Variants:
		return "variants"
	case Calls:
		return "calls"
	case Info:
		return "info"
	}
	return fmt.Sprintf("TableKind(%d)", int(k))
}

// ParseTableKind parses "variants", "calls" or "info".
func ParseTableKind(s string) (TableKind, error) {
	switch strings.ToLower(s) {
	case "variants", "variant":
		return Variants, nil
	case "calls", "calldata", "call":
		return Calls, nil
	case "info":
		return Info, nil
	}
	return 0, fmt.Errorf("unknown table kind %q", s)
}
