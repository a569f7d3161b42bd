// internal/domain/models/categories.go
package models

// CategorySpec describes one GP category: its allowed sub-types and,
// where it makes sense, an allowed genre list. This is the single
// configuration table consumed by input validation and the capacity
// planner; the category set is fixed and never computed.
type CategorySpec struct {
	Name     string   `json:"name"`
	SubTypes []string `json:"sub_types"`
	Genres   []string `json:"genres,omitempty"`
}

// Categories is the fixed category table. The planner seeds per-category
// counts from this list so a category with zero groups is still visible
// as empty.
var Categories = []CategorySpec{
	{
		Name:     "music",
		SubTypes: []string{"listening-party", "song-swap", "lyric-talk"},
		Genres:   []string{"pop", "rock", "hip-hop", "r&b", "electronic", "indie", "jazz", "classical"},
	},
	{
		Name:     "movies",
		SubTypes: []string{"watch-party", "review-circle", "spoiler-zone"},
		Genres:   []string{"action", "comedy", "drama", "horror", "sci-fi", "romance", "documentary"},
	},
	{
		Name:     "gaming",
		SubTypes: []string{"squad-up", "strategy-talk", "game-night"},
	},
	{
		Name:     "sports",
		SubTypes: []string{"match-talk", "fantasy-league", "pickup"},
	},
}

// CategoryNames returns the category enum in table order.
func CategoryNames() []string {
	names := make([]string, 0, len(Categories))
	for _, c := range Categories {
		names = append(names, c.Name)
	}
	return names
}

// FindCategory looks up a category by name.
func FindCategory(name string) (CategorySpec, bool) {
	for _, c := range Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategorySpec{}, false
}

// AllowsSubType reports whether the sub-type is valid for this category.
func (c CategorySpec) AllowsSubType(subType string) bool {
	for _, s := range c.SubTypes {
		if s == subType {
			return true
		}
	}
	return false
}

// AllowsGenre reports whether the genre is valid for this category.
// Categories without a genre list accept no genre.
func (c CategorySpec) AllowsGenre(genre string) bool {
	for _, g := range c.Genres {
		if g == genre {
			return true
		}
	}
	return false
}
