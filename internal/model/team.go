package model

// Team is keyed by its generated join code. The roster holds canonical
// athlete keys; join is idempotent, so a key appears at most once.
type Team struct {
	Name   string   `json:"name"`
	Roster []string `json:"roster"`
}

// HasMember reports whether the canonical athlete key is on the roster.
func (t *Team) HasMember(key string) bool {
	for _, m := range t.Roster {
		if m == key {
			return true
		}
	}
	return false
}
