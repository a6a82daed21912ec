package graph

import "github.com/vanderheijden86/storyweb/pkg/model"

// Seed populates s with a small demo graph. It is meant for first runs
// when no persisted state exists.
func Seed(s *Store) {
	hero := s.CreateEntity()
	hero.Name = "Hero"
	hero.Type = "character"
	hero.Content = "A reluctant traveller."
	hero.Attributes = append(hero.Attributes, model.TextAttr("eyes", "grey"))

	village := s.CreateEntity()
	village.Name = "Village"
	village.Type = "location"
	village.Content = "Where it all starts."

	raid := s.CreateEntity()
	raid.Name = "Raid"
	raid.Type = "event"
	raid.Content = "The night the village burned."

	s.Link(hero.ID, village.ID)
	s.Link(raid.ID, village.ID)
	s.Link(raid.ID, hero.ID)
}
