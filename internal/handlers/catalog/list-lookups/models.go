package listlookups

import "huusy-marketplace/internal/models"

type Input struct {
	Kind models.LookupKind
	// Path selects a single lookup when set.
	Path string
}

// Output carries either the whole list or, with a path, the single match.
type Output struct {
	Kind    models.LookupKind `json:"kind"`
	Lookups []models.Lookup   `json:"lookups,omitempty"`
	Lookup  *models.Lookup    `json:"lookup,omitempty"`
}
