package wordpress

// RawLead is one untyped form submission as the WordPress plugin returns it.
// Field names vary between form plugins; the normalizer owns the mapping.
type RawLead map[string]any

type leadsResponse struct {
	Leads []RawLead `json:"leads"`
	Total int       `json:"total"`
}
