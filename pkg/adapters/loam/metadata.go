package loam

// TemplateMetadata is the frontmatter of a template document. The markdown
// body becomes the template doc.
type TemplateMetadata struct {
	Title   string `json:"title" mapstructure:"title"`
	Group   string `json:"group" mapstructure:"group"`
	Color   string `json:"color" mapstructure:"color"`
	Version string `json:"version" mapstructure:"version"`

	// Function names a data-node function registered with the resolver.
	Function string `json:"function" mapstructure:"function"`
	// Update names an update function; it wins over Function.
	Update string `json:"update" mapstructure:"update"`

	Inputs  []PortMetadata `json:"inputs" mapstructure:"inputs"`
	Outputs []PortMetadata `json:"outputs" mapstructure:"outputs"`
}

// PortMetadata declares one port.
type PortMetadata struct {
	Label string `json:"label" mapstructure:"label"`
	// Type is "data" (default) or "exec".
	Type string `json:"type" mapstructure:"type"`
	// DType is decoded into DTypeMetadata.
	DType map[string]any `json:"dtype" mapstructure:"dtype"`
	// OType is a full "namespace/function/input|output/name" reference.
	OType string `json:"otype" mapstructure:"otype"`
	Value any    `json:"value" mapstructure:"value"`
}

// DTypeMetadata is the dtype block of a port.
type DTypeMetadata struct {
	Kind      string   `mapstructure:"kind"`
	Default   any      `mapstructure:"default"`
	Doc       string   `mapstructure:"doc"`
	Classes   []string `mapstructure:"valid_classes"`
	AllowNone bool     `mapstructure:"allow_none"`
	Batched   bool     `mapstructure:"batched"`
	Items     []any    `mapstructure:"items"`
	Min       *float64 `mapstructure:"min"`
	Max       *float64 `mapstructure:"max"`
	Decimals  int      `mapstructure:"decimals"`
	Size      string   `mapstructure:"size"`
}
