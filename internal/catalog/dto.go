package catalog

// Specification is one name/value attribute row on a product.
type Specification struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Product mirrors the catalog API's product shape. Image is the legacy
// single-image field from before the multi-image model; AllImages resolves
// the precedence between the two.
type Product struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          int             `json:"price"`
	OldPrice       *int            `json:"oldPrice"`
	Stock          int             `json:"stock"`
	CategoryID     *int            `json:"categoryId"`
	Images         []string        `json:"images"`
	Image          string          `json:"image,omitempty"`
	Video          string          `json:"video,omitempty"`
	Specifications []Specification `json:"specifications,omitempty"`
}

// AllImages returns the modern images list when present, else the legacy
// single image as a one-element list.
func (p *Product) AllImages() []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if p.Image != "" {
		return []string{p.Image}
	}
	return nil
}

// Category mirrors the catalog API's category shape.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Order       int    `json:"order"`
}

// News mirrors the news API shape.
type News struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// CategoryOrder is one entry of a category reorder submission.
type CategoryOrder struct {
	ID    int `json:"id"`
	Order int `json:"order"`
}
