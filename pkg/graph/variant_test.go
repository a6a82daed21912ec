package graph_test

import (
	"reflect"
	"testing"

	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/model"
)

func TestVariantLetters(t *testing.T) {
	tests := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for n, want := range tests {
		if got := graph.VariantLetters(n); got != want {
			t.Errorf("VariantLetters(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestVariantNamingSequence(t *testing.T) {
	s := graph.NewStore()
	guard := s.CreateEntity()
	s.SetName(guard.ID, "Guard")

	var suffixes []string
	for i := 0; i < 27; i++ {
		v := s.CreateVariant(guard.ID)
		suffixes = append(suffixes, v.Name[len("Guard - var "):])
	}
	if suffixes[0] != "A" || suffixes[25] != "Z" || suffixes[26] != "AA" {
		t.Errorf("suffixes = %v", suffixes)
	}
}

func TestVariantOfVariantSharesBaseName(t *testing.T) {
	s := graph.NewStore()
	g := s.CreateEntity()
	s.SetName(g.ID, "Guard")
	a := s.CreateVariant(g.ID)
	b := s.CreateVariant(a.ID)
	if b.Name != "Guard - var B" {
		t.Errorf("variant of variant = %q", b.Name)
	}
}

func TestVariantSkipsTakenNames(t *testing.T) {
	s := graph.NewStore()
	g := s.CreateEntity()
	s.SetName(g.ID, "Guard")
	taken := s.CreateEntity()
	s.SetName(taken.ID, "Guard - var A")

	if v := s.CreateVariant(g.ID); v.Name != "Guard - var B" {
		t.Errorf("name = %q, want Guard - var B", v.Name)
	}
}

func TestVariantReplicatesRelationships(t *testing.T) {
	s := graph.NewStore()
	parent := s.CreateEntity().ID
	orig := s.CreateEntity().ID
	child := s.CreateEntity().ID
	target := s.CreateEntity().ID
	source := s.CreateEntity().ID
	s.Contain(parent, orig)
	s.Contain(orig, child)
	s.Link(orig, target)
	s.Link(source, orig)
	s.SetAttr(orig, model.ListAttr("allies", []model.ListItem{{EntityID: target, Text: "T"}}))
	s.AddRepresentation(orig, "guard.png")

	v := s.CreateVariant(orig)
	if v == nil {
		t.Fatal("variant is nil")
	}
	if !reflect.DeepEqual(s.Parents(v.ID), []int{parent}) {
		t.Errorf("variant parents = %v", s.Parents(v.ID))
	}
	if len(s.Children(v.ID)) != 0 {
		t.Errorf("variant must not copy children: %v", s.Children(v.ID))
	}
	if s.IsChild(orig, v.ID) {
		t.Error("variant must not be a child of the original")
	}
	if !s.HasLink(v.ID, target) || !s.HasLink(source, v.ID) {
		t.Error("links and back-links not replicated")
	}

	s.Entity(v.ID).Attributes[0].Items[0].Text = "mutated"
	s.Entity(v.ID).Representations[0] = "other.png"
	if s.Entity(orig).Attributes[0].Items[0].Text != "T" || s.Entity(orig).Representations[0] != "guard.png" {
		t.Error("variant shares attribute or representation storage with the original")
	}
}
