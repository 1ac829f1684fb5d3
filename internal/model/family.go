package model

// Palette is the fixed, ordered set of display colors for family children.
// Child color assignment picks the first entry not used by a sibling;
// ordering therefore matters and new colors must only be appended.
var Palette = []string{
	"#2E8B57", "#1E90FF", "#FF6347", "#FFD700", "#8A2BE2",
	"#00CED1", "#FF69B4", "#A0522D", "#2F4F4F", "#7FFF00",
}

// FamilyChild links one athlete into a family with the display color used
// on the shared calendar.
type FamilyChild struct {
	Identity string `json:"identity"`
	Color    string `json:"color"`
}

// Family is keyed by its generated code. Children is ordered (insertion
// order); no two children share a color while the palette lasts.
type Family struct {
	Name     string        `json:"name"`
	Children []FamilyChild `json:"children"`
}

// Child returns the child entry for the canonical athlete key, or nil.
func (f *Family) Child(key string) *FamilyChild {
	for i := range f.Children {
		if f.Children[i].Identity == key {
			return &f.Children[i]
		}
	}
	return nil
}

// UsedColors returns the set of colors already assigned in this family.
func (f *Family) UsedColors() map[string]bool {
	used := make(map[string]bool, len(f.Children))
	for _, c := range f.Children {
		if c.Color != "" {
			used[c.Color] = true
		}
	}
	return used
}
