package model

// Category is a user-defined label. Items reference it by ID only; its
// lifecycle is independent of the items carrying it.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ColorHex string `json:"color_hex"`
}
