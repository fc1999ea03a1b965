package editor

import (
	"github.com/parsifal-shop/storefront-client/internal/catalog"
	"github.com/parsifal-shop/storefront-client/internal/media"
)

// The edit drawer works on one of three fixed form shapes. Each is a fully
// typed struct rather than a loose field bag, so the near-identical editors
// cannot drift apart.

// ProductForm is the editable state of a product.
type ProductForm struct {
	Name        string `validate:"required"`
	Description string
	Price       int  `validate:"gte=0"`
	OldPrice    *int `validate:"omitempty,gte=0"`
	Stock       int  `validate:"gte=0"`
	CategoryID  *int

	// Media is the ordered image list, existing and staged mixed.
	Media *media.List

	// Video holds the currently persisted video URL or key; VideoFile a
	// staged replacement; RemovedVideo an explicit detach.
	Video        string
	VideoFile    *media.StagedFile
	RemovedVideo bool

	Specifications []catalog.Specification
}

// NewProductForm builds the form for an existing product, or an empty one
// when product is nil.
func NewProductForm(product *catalog.Product) ProductForm {
	if product == nil {
		return ProductForm{Media: media.NewListFromImages(nil)}
	}
	specs := make([]catalog.Specification, len(product.Specifications))
	copy(specs, product.Specifications)
	return ProductForm{
		Name:           product.Name,
		Description:    product.Description,
		Price:          product.Price,
		OldPrice:       product.OldPrice,
		Stock:          product.Stock,
		CategoryID:     product.CategoryID,
		Media:          media.NewListFromProduct(product),
		Video:          product.Video,
		Specifications: specs,
	}
}

// NewsForm is the editable state of a news item.
type NewsForm struct {
	Title   string `validate:"required"`
	Content string `validate:"required"`

	Image     string
	ImageFile *media.StagedFile
}

func NewNewsForm(item *catalog.News) NewsForm {
	if item == nil {
		return NewsForm{}
	}
	return NewsForm{
		Title:   item.Title,
		Content: item.Content,
		Image:   item.Image,
	}
}

// CategoryForm is the editable state of a category.
type CategoryForm struct {
	Name        string `validate:"required"`
	Description string

	Image     string
	ImageFile *media.StagedFile
}

func NewCategoryForm(category *catalog.Category) CategoryForm {
	if category == nil {
		return CategoryForm{}
	}
	return CategoryForm{
		Name:        category.Name,
		Description: category.Description,
		Image:       category.Image,
	}
}

// filterSpecifications drops rows missing a name or value, the way partially
// filled rows are discarded on save.
func filterSpecifications(specs []catalog.Specification) []catalog.Specification {
	out := make([]catalog.Specification, 0, len(specs))
	for _, spec := range specs {
		if spec.Name != "" && spec.Value != "" {
			out = append(out, spec)
		}
	}
	return out
}
