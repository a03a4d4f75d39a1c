package model

import "time"

// TagColour is the fixed palette for task tags.
type TagColour string

const (
	ColourRed    TagColour = "red"
	ColourOrange TagColour = "orange"
	ColourYellow TagColour = "yellow"
	ColourGreen  TagColour = "green"
	ColourBlue   TagColour = "blue"
	ColourPurple TagColour = "purple"
)

// ValidTagColour reports whether s names a palette colour.
func ValidTagColour(s string) bool {
	switch TagColour(s) {
	case ColourRed, ColourOrange, ColourYellow, ColourGreen, ColourBlue, ColourPurple:
		return true
	}
	return false
}

// Tag labels tasks; names are unique per user.
type Tag struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Name      string    `json:"name"`
	Colour    TagColour `json:"colour"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
