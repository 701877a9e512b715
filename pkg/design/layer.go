package design

// LayerType enumerates the element kinds a document can hold.
type LayerType string

const (
	LayerRectangle LayerType = "rectangle"
	LayerCircle    LayerType = "circle"
	LayerText      LayerType = "text"
	LayerImage     LayerType = "image"
	LayerLine      LayerType = "line"
)

// Cursor is a pointer position in document coordinates.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point is a vertex of a line or path layer.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layer is one document element. Layer ids are client-generated and
// globally unique; the server never deduplicates them. Paint and
// selection order come from ZIndex, not collection position.
type Layer struct {
	ID       string    `json:"id"`
	Type     LayerType `json:"type"`
	Name     string    `json:"name"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Rotation float64   `json:"rotation,omitempty"`

	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`

	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Points   []Point `json:"points,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`

	Visible bool `json:"visible"`
	Locked  bool `json:"locked"`
	ZIndex  int  `json:"zIndex"`
}
