package model

// Sound is an entry in the static alarm sound catalog.
type Sound struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultSound is used when an alarm does not pick one.
const DefaultSound = "gentle-chime"

var soundCatalog = []Sound{
	{ID: "gentle-chime", Name: "Gentle Chime", Description: "Soft rising chimes"},
	{ID: "beep", Name: "Beep", Description: "Classic digital beeping"},
	{ID: "soft-bell", Name: "Soft Bell", Description: "A calm single bell"},
	{ID: "energetic", Name: "Energetic", Description: "Upbeat melody to get moving"},
	{ID: "birdsong", Name: "Birdsong", Description: "Morning birds"},
}

// Sounds returns the sound catalog.
func Sounds() []Sound {
	out := make([]Sound, len(soundCatalog))
	copy(out, soundCatalog)
	return out
}

// LookupSound finds a catalog entry by id.
func LookupSound(id string) (Sound, bool) {
	for _, s := range soundCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return Sound{}, false
}

// IsValidSound checks if id names a catalog sound.
func IsValidSound(id string) bool {
	_, ok := LookupSound(id)
	return ok
}
