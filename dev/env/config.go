package devenv

// EdreamsSearchConfig is the search used by tests that hit the live site,
// it lives at dev/.state/edreams_search.json5.
type EdreamsSearchConfig struct {
	Origin string `json:"origin"`
	From   string `json:"from"`
	To     string `json:"to"`
}
