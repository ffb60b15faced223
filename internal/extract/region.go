package extract

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Region is a chromosome interval [Start, End) over 1-based positions.
// End == 0 means the interval runs to the end of the chromosome.
type Region struct {
	Chrom string
	Start int64
	End   int64
}

// Contains reports whether a record at chrom:pos falls inside the region.
func (r Region) Contains(pos int64) bool {
	return pos >= r.Start && (r.End <= 0 || pos < r.End)
}

// String formats the region the way ParseRegion reads it.
func (r Region) String() string {
	switch {
	case r.Start <= 0 && r.End <= 0:
		return r.Chrom
	case r.End <= 0:
		return fmt.Sprintf("%s:%d", r.Chrom, r.Start)
	default:
		return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End-1)
	}
}

// ParseRegion parses "chrom", "chrom:start" or "chrom:start-end". Positions
// are 1-based and the end is inclusive, as in samtools; thousands separators
// are allowed.
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	chrom, span, hasSpan := strings.Cut(s, ":")
	if chrom == "" {
		return Region{}, fmt.Errorf("invalid region %q: empty chromosome", s)
	}
	r := Region{Chrom: chrom}
	if !hasSpan {
		return r, nil
	}

	span = strings.ReplaceAll(span, ",", "")
	startStr, endStr, hasEnd := strings.Cut(span, "-")
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 1 {
		return Region{}, fmt.Errorf("invalid region %q: bad start %q", s, startStr)
	}
	r.Start = start
	if !hasEnd {
		return r, nil
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || end < start {
		return Region{}, fmt.Errorf("invalid region %q: bad end %q", s, endStr)
	}
	r.End = end + 1
	return r, nil
}

// ParseRegions parses a list of region strings.
func ParseRegions(specs []string) ([]Region, error) {
	out := make([]Region, 0, len(specs))
	for _, s := range specs {
		r, err := ParseRegion(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// SortRegions returns a copy of regions in ascending (chromosome, start, end)
// order, using natural chromosome order.
func SortRegions(regions []Region) []Region {
	out := slices.Clone(regions)
	slices.SortStableFunc(out, func(a, b Region) int {
		if c := CompareChrom(a.Chrom, b.Chrom); c != 0 {
			return c
		}
		if a.Start != b.Start {
			return cmpInt(a.Start, b.Start)
		}
		return cmpInt(endKey(a.End), endKey(b.End))
	})
	return out
}

func endKey(end int64) int64 {
	if end <= 0 {
		return 1<<63 - 1
	}
	return end
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareChrom orders chromosome names naturally: numbered chromosomes by
// number (chr2 before chr10), then X, Y and M/MT, then any other names
// lexically. A "chr" prefix is ignored.
func CompareChrom(a, b string) int {
	ra, na := chromRank(a)
	rb, nb := chromRank(b)
	if ra != rb {
		return cmpInt(int64(ra), int64(rb))
	}
	if ra == 0 && na != nb {
		return cmpInt(na, nb)
	}
	return strings.Compare(a, b)
}

// chromRank returns a sort class and, for numbered chromosomes, the number.
func chromRank(name string) (int, int64) {
	base := strings.TrimPrefix(name, "chr")
	if n, err := strconv.ParseInt(base, 10, 64); err == nil {
		return 0, n
	}
	switch strings.ToUpper(base) {
	case "X":
		return 1, 0
	case "Y":
		return 2, 0
	case "M", "MT":
		return 3, 0
	}
	return 4, 0
}
