package elements

// Style describes how one element class is drawn. Fields name the element
// attribute a surface reads for the label and for the size; Properties
// carries the remaining surface-specific settings verbatim.
type Style struct {
	LabelField  string            `json:"label_field,omitempty"`
	SizeField   string            `json:"size_field,omitempty"`
	ImageField  string            `json:"image_field,omitempty"`
	Opacity     float64           `json:"opacity"`
	Interactive bool              `json:"interactive"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// StyleTable maps an element class to its style.
type StyleTable map[string]Style

// Lookup returns the style for class and whether it exists.
func (t StyleTable) Lookup(class string) (Style, bool) {
	s, ok := t[class]
	return s, ok
}

// Hidden returns the style applied to hidden elements. Surfaces must not
// draw or hit-test an element carrying it.
func (t StyleTable) Hidden() Style {
	if s, ok := t[ClassHidden]; ok {
		return s
	}
	return Style{}
}

// DefaultStyles returns the standard style table.
func DefaultStyles() StyleTable {
	return StyleTable{
		ClassKeyword: {
			LabelField:  "label",
			Opacity:     1,
			Interactive: true,
			Properties: map[string]string{
				"text-wrap":      "wrap",
				"text-max-width": "500px",
				"text-valign":    "top",
				"text-halign":    "center",
				"font-weight":    "bold",
			},
		},
		ClassDetail: {
			LabelField:  "label",
			SizeField:   "size",
			ImageField:  "image",
			Opacity:     1,
			Interactive: true,
			Properties: map[string]string{
				"background-color": "#DCDCDC",
				"background-fit":   "contain",
				"background-clip":  "none",
				"text-wrap":        "wrap",
				"text-max-width":   "500px",
				"text-valign":      "bottom",
				"text-halign":      "center",
				"font-size":        "15px",
				"text-margin-y":    "15px",
				"padding":          "20px",
			},
		},
		ClassEdge: {
			LabelField:  "label",
			Opacity:     1,
			Interactive: true,
			Properties: map[string]string{
				"text-rotation":      "autorotate",
				"font-weight":        "bold",
				"font-size":          "15px",
				"text-margin-y":      "-10px",
				"width":              "10",
				"line-color":         "#ccc",
				"target-arrow-color": "#ccc",
				"target-arrow-shape": "triangle",
				"curve-style":        "bezier",
				"color":              "gray",
				"arrow-scale":        "1.2",
			},
		},
		ClassHidden: {
			Opacity:     0,
			Interactive: false,
			Properties: map[string]string{
				"visibility": "hidden",
			},
		},
	}
}
