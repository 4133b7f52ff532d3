package theme

type Colors struct {
	Background       string   `json:"background" yaml:"background" toml:"background" validate:"required"`
	Heading          string   `json:"heading" yaml:"heading" toml:"heading" validate:"required,iscolor"`
	Paragraph        string   `json:"paragraph" yaml:"paragraph" toml:"paragraph" validate:"required,iscolor"`
	BackgroundImages []string `json:"backgroundImages,omitempty" yaml:"background_images,omitempty" toml:"background_images,omitempty" validate:"omitempty,max=3,dive,required"`
}

type Fonts struct {
	Heading   string `json:"heading" yaml:"heading" toml:"heading" validate:"required"`
	Paragraph string `json:"paragraph" yaml:"paragraph" toml:"paragraph" validate:"required"`
}

// Theme is a named set of colour and font tokens. Slides reference themes
// by id and never embed them.
type Theme struct {
	ID     string `json:"id" yaml:"id" toml:"id" validate:"required"`
	Name   string `json:"name" yaml:"name" toml:"name" validate:"required"`
	Colors Colors `json:"colors" yaml:"colors" toml:"colors"`
	Fonts  Fonts  `json:"fonts" yaml:"fonts" toml:"fonts"`
}

// Background returns the background for the slide at index idx.
// With background images configured every fifth slide uses the third image
// and every third slide the second one; all others use the first. Without
// images the background colour is returned.
func Background(t Theme, idx int) string {
	images := t.Colors.BackgroundImages
	if len(images) == 0 {
		return t.Colors.Background
	}
	n := idx + 1
	switch {
	case n%5 == 0 && len(images) > 2 && images[2] != "":
		return images[2]
	case n%3 == 0 && len(images) > 1 && images[1] != "":
		return images[1]
	}
	return images[0]
}

const DefaultID = "classic"

var builtin = []Theme{
	{
		ID:   DefaultID,
		Name: "Classic",
		Colors: Colors{
			Background: "#ffffff",
			Heading:    "#1f2933",
			Paragraph:  "#3e4c59",
		},
		Fonts: Fonts{Heading: "Georgia, serif", Paragraph: "Arial, sans-serif"},
	},
	{
		ID:   "midnight",
		Name: "Midnight",
		Colors: Colors{
			Background: "#102a43",
			Heading:    "#f0f4f8",
			Paragraph:  "#bcccdc",
		},
		Fonts: Fonts{Heading: "Montserrat, sans-serif", Paragraph: "Roboto, sans-serif"},
	},
	{
		ID:   "sunrise",
		Name: "Sunrise",
		Colors: Colors{
			Background: "#fff8e1",
			Heading:    "#b44d12",
			Paragraph:  "#513c06",
			BackgroundImages: []string{
				"linear-gradient(135deg, #fff8e1 0%, #ffe0b2 100%)",
				"linear-gradient(135deg, #ffe0b2 0%, #ffcc80 100%)",
				"linear-gradient(135deg, #ffcc80 0%, #ffb74d 100%)",
			},
		},
		Fonts: Fonts{Heading: "Playfair Display, serif", Paragraph: "Lato, sans-serif"},
	},
	{
		ID:   "forest",
		Name: "Forest",
		Colors: Colors{
			Background: "#f1f8f4",
			Heading:    "#14532d",
			Paragraph:  "#1f2937",
		},
		Fonts: Fonts{Heading: "Merriweather, serif", Paragraph: "Open Sans, sans-serif"},
	},
}

// Builtin returns a copy of the built-in catalog.
func Builtin() []Theme {
	result := make([]Theme, len(builtin))
	for i, t := range builtin {
		result[i] = t.clone()
	}
	return result
}

func (t Theme) clone() Theme {
	c := t
	c.Colors.BackgroundImages = append([]string(nil), t.Colors.BackgroundImages...)
	return c
}
