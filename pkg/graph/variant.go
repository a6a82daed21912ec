package graph

import (
	"regexp"

	"github.com/vanderheijden86/storyweb/pkg/model"
)

var variantSuffix = regexp.MustCompile(`^(.*) - var [A-Z]+$`)

// VariantBaseName strips a trailing " - var X" suffix, so variants of a
// variant share the original's base name.
func VariantBaseName(name string) string {
	if m := variantSuffix.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}

// VariantLetters encodes n (0-based) in bijective base 26: 0 -> A,
// 25 -> Z, 26 -> AA, 27 -> AB.
func VariantLetters(n int) string {
	if n < 0 {
		return ""
	}
	var buf []byte
	for n >= 0 {
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n = n/26 - 1
	}
	return string(buf)
}

// CreateVariant creates a sibling duplicate of originalID: the name gets
// the first free " - var X" suffix for its base name, attributes and
// representations are deep-copied, and the original's parents, outgoing
// links and back-links are replicated. The variant is not made a child of
// the original. Returns nil when originalID does not exist.
func (s *Store) CreateVariant(originalID int) *model.Entity {
	orig := s.entities[originalID]
	if orig == nil {
		return nil
	}
	base := VariantBaseName(orig.Name)
	taken := make(map[string]bool, len(s.order))
	for _, id := range s.order {
		taken[s.entities[id].Name] = true
	}
	name := ""
	for n := 0; ; n++ {
		name = base + " - var " + VariantLetters(n)
		if !taken[name] {
			break
		}
	}

	v := s.CreateEntity()
	clone := orig.Clone()
	v.Name = name
	v.Type = clone.Type
	v.Content = clone.Content
	v.Attributes = clone.Attributes
	v.Representations = clone.Representations

	for _, p := range s.Parents(originalID) {
		s.Contain(p, v.ID)
	}
	for _, target := range s.Links(originalID) {
		s.Link(v.ID, target)
	}
	for _, src := range s.Backlinks(originalID) {
		s.Link(src, v.ID)
	}
	s.markDirty()
	return v
}
