package pnlkit

// Security identifies a tradable instrument. The ISIN is the identity:
// two Security values with the same ISIN refer to the same instrument
// regardless of metadata.
type Security struct {
	ISIN     string            `json:"isin"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
