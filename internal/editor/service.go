package editor

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/parsifal-shop/storefront-client/internal/catalog"
	"github.com/parsifal-shop/storefront-client/internal/media"
	pkgerrors "github.com/parsifal-shop/storefront-client/pkg/errors"
	"github.com/parsifal-shop/storefront-client/pkg/logger"
	"github.com/parsifal-shop/storefront-client/pkg/rest"
)

type api interface {
	SubmitMultipart(ctx context.Context, method, path string, form rest.MultipartForm, out any) error
}

// Service validates entity edit forms and submits them as multipart saves:
// one JSON metadata part named after the entity, file bytes as separate
// parts.
type Service struct {
	api      api
	logg     *logger.Logger
	markers  []string
	validate *validator.Validate
}

// NewService builds the editor service. markers are the storage bucket
// markers used for stable-key extraction.
func NewService(client api, logg *logger.Logger, markers []string) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("api client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if len(markers) == 0 {
		return nil, fmt.Errorf("storage bucket markers required")
	}
	return &Service{
		api:      client,
		logg:     logg,
		markers:  markers,
		validate: validator.New(),
	}, nil
}

// StageImages stages files into the form's media list, logging each skipped
// non-image without aborting the batch.
func (s *Service) StageImages(ctx context.Context, list *media.List, files ...media.StagedFile) int {
	added, skipped := list.Stage(files...)
	for _, name := range skipped {
		s.logg.Warn(s.logg.WithField(ctx, "file", name), "selected file is not an image, skipping")
	}
	return added
}

type productMeta struct {
	Name           string                  `json:"name"`
	Description    string                  `json:"description"`
	Price          int                     `json:"price"`
	OldPrice       *int                    `json:"oldPrice"`
	Stock          int                     `json:"stock"`
	CategoryID     *int                    `json:"categoryId"`
	Images         []string                `json:"images"`
	Video          *string                 `json:"video"`
	Specifications []catalog.Specification `json:"specifications"`
}

// SaveProduct submits the product form, creating when id is nil and updating
// otherwise.
func (s *Service) SaveProduct(ctx context.Context, id *int, form ProductForm) error {
	if err := s.validate.Struct(form); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product form")
	}
	if form.Media == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product form has no media list")
	}

	payload := form.Media.BuildSavePayload(s.markers)

	meta := productMeta{
		Name:           form.Name,
		Description:    form.Description,
		Price:          form.Price,
		OldPrice:       form.OldPrice,
		Stock:          form.Stock,
		CategoryID:     form.CategoryID,
		Images:         append([]string{}, payload.ExistingKeys...),
		Video:          resolveVideoKey(form, s.markers),
		Specifications: filterSpecifications(form.Specifications),
	}

	multipart := rest.MultipartForm{
		MetaField: "product",
		Meta:      meta,
	}
	for _, file := range payload.NewFiles {
		multipart.Files = append(multipart.Files, rest.FilePart{
			Field:       "images",
			Name:        file.Name,
			ContentType: file.MIME,
			Data:        file.Data,
		})
	}
	if form.VideoFile != nil {
		multipart.Files = append(multipart.Files, rest.FilePart{
			Field:       "video",
			Name:        form.VideoFile.Name,
			ContentType: form.VideoFile.MIME,
			Data:        form.VideoFile.Data,
		})
	}

	method, path := http.MethodPost, "/products"
	if id != nil {
		method, path = http.MethodPatch, fmt.Sprintf("/products/%d", *id)
	}
	return s.api.SubmitMultipart(ctx, method, path, multipart, nil)
}

// resolveVideoKey re-derives the stable key for the retained video, or nil
// when there is none or it was explicitly removed.
func resolveVideoKey(form ProductForm, markers []string) *string {
	if form.RemovedVideo || form.Video == "" {
		return nil
	}
	key, ok := media.ExtractStableKey(form.Video, markers)
	if !ok {
		return nil
	}
	return &key
}

type newsMeta struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Image   *string `json:"image"`
}

// SaveNews submits the news form.
func (s *Service) SaveNews(ctx context.Context, id *int, form NewsForm) error {
	if err := s.validate.Struct(form); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid news form")
	}

	multipart := rest.MultipartForm{
		MetaField: "news",
		Meta: newsMeta{
			Title:   form.Title,
			Content: form.Content,
			Image:   resolveImageKey(form.Image, s.markers),
		},
	}
	if form.ImageFile != nil {
		multipart.Files = append(multipart.Files, rest.FilePart{
			Field:       "image",
			Name:        form.ImageFile.Name,
			ContentType: form.ImageFile.MIME,
			Data:        form.ImageFile.Data,
		})
	}

	method, path := http.MethodPost, "/news"
	if id != nil {
		method, path = http.MethodPatch, fmt.Sprintf("/news/%d", *id)
	}
	return s.api.SubmitMultipart(ctx, method, path, multipart, nil)
}

type categoryMeta struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// SaveCategory submits the category form.
func (s *Service) SaveCategory(ctx context.Context, id *int, form CategoryForm) error {
	if err := s.validate.Struct(form); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category form")
	}

	multipart := rest.MultipartForm{
		MetaField: "category",
		Meta: categoryMeta{
			Name:        form.Name,
			Description: form.Description,
			Image:       resolveImageKey(form.Image, s.markers),
		},
	}
	if form.ImageFile != nil {
		multipart.Files = append(multipart.Files, rest.FilePart{
			Field:       "image",
			Name:        form.ImageFile.Name,
			ContentType: form.ImageFile.MIME,
			Data:        form.ImageFile.Data,
		})
	}

	method, path := http.MethodPost, "/categories"
	if id != nil {
		method, path = http.MethodPatch, fmt.Sprintf("/categories/%d", *id)
	}
	return s.api.SubmitMultipart(ctx, method, path, multipart, nil)
}

// resolveImageKey converts a full URL back to a stable key; bare keys pass
// through. A value that yields no key is omitted rather than blocking the
// save.
func resolveImageKey(value string, markers []string) *string {
	if value == "" {
		return nil
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		key, ok := media.ExtractStableKey(value, markers)
		if !ok {
			return nil
		}
		return &key
	}
	return &value
}
