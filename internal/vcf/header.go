package vcf

import (
	"fmt"
	"strings"
)

// FieldDecl is one ##INFO or ##FORMAT declaration from the header.
type FieldDecl struct {
	ID          string
	Number      string // "0", "1", "A", "R", "G", "." ...
	Type        string // "Integer", "Float", "Flag", "Character", "String"
	Description string
}

// Header holds the metadata lines of a VCF file.
type Header struct {
	Lines   []string    // raw header lines, including #CHROM
	Samples []string    // sample names from #CHROM header line
	Info    []FieldDecl // ##INFO declarations in file order
	Format  []FieldDecl // ##FORMAT declarations in file order
	Filters []string    // ##FILTER IDs in file order
	Contigs []string    // ##contig IDs in file order
}

// InfoDecl returns the INFO declaration for id.
func (h *Header) InfoDecl(id string) (FieldDecl, bool) {
	return findDecl(h.Info, id)
}

// FormatDecl returns the FORMAT declaration for id.
func (h *Header) FormatDecl(id string) (FieldDecl, bool) {
	return findDecl(h.Format, id)
}

func findDecl(decls []FieldDecl, id string) (FieldDecl, bool) {
	for _, d := range decls {
		if d.ID == id {
			return d, true
		}
	}
	return FieldDecl{}, false
}

// addLine records a single header line, parsing structured meta lines.
func (h *Header) addLine(line string) error {
	h.Lines = append(h.Lines, line)

	if strings.HasPrefix(line, "#CHROM") {
		fields := strings.Split(line, "\t")
		if len(fields) > 9 {
			h.Samples = fields[9:]
		}
		return nil
	}

	key, body, ok := strings.Cut(strings.TrimPrefix(line, "##"), "=")
	if !ok || !strings.HasPrefix(body, "<") {
		return nil
	}
	attrs, err := parseMetaAttrs(body)
	if err != nil {
		return fmt.Errorf("parse ##%s: %w", key, err)
	}

	switch key {
	case "INFO", "FORMAT":
		d := FieldDecl{
			ID:          attrs["ID"],
			Number:      attrs["Number"],
			Type:        attrs["Type"],
			Description: attrs["Description"],
		}
		if d.ID == "" {
			return fmt.Errorf("##%s line without ID", key)
		}
		if key == "INFO" {
			h.Info = append(h.Info, d)
		} else {
			h.Format = append(h.Format, d)
		}
	case "FILTER":
		if id := attrs["ID"]; id != "" && id != "PASS" {
			h.Filters = append(h.Filters, id)
		}
	case "contig":
		if id := attrs["ID"]; id != "" {
			h.Contigs = append(h.Contigs, id)
		}
	}
	return nil
}

// parseMetaAttrs parses "<ID=DP,Number=1,Description="a, b">" into a map.
// Quoted values may contain commas and escaped quotes.
func parseMetaAttrs(body string) (map[string]string, error) {
	if !strings.HasPrefix(body, "<") || !strings.HasSuffix(body, ">") {
		return nil, fmt.Errorf("malformed structured value %q", body)
	}
	s := body[1 : len(body)-1]
	attrs := make(map[string]string)

	for len(s) > 0 {
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return nil, fmt.Errorf("missing '=' in %q", s)
		}
		key := strings.TrimSpace(s[:eq])
		s = s[eq+1:]

		var val string
		if strings.HasPrefix(s, `"`) {
			var b strings.Builder
			i := 1
			for ; i < len(s); i++ {
				if s[i] == '\\' && i+1 < len(s) {
					i++
					b.WriteByte(s[i])
					continue
				}
				if s[i] == '"' {
					break
				}
				b.WriteByte(s[i])
			}
			if i >= len(s) {
				return nil, fmt.Errorf("unterminated quote for %s", key)
			}
			val = b.String()
			s = s[i+1:]
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			val = s[:end]
			s = s[end:]
		}
		attrs[key] = val
		s = strings.TrimPrefix(s, ",")
	}
	return attrs, nil
}
