package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpx"
	"github.com/joao-fontenele/storefront/internal/postgres"
	"github.com/joao-fontenele/storefront/internal/storage"
)

// Accepted upload types and the extension their objects are stored with.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type ImageStore interface {
	ListByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error)
	Get(ctx context.Context, productID, id int64) (*domain.ProductImage, error)
	Create(ctx context.Context, img *domain.ProductImage) error
	Delete(ctx context.Context, productID, id int64) error
}

type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, object_key, content_type, size_bytes, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY id
	`, productID)
	if err != nil {
		return nil, postgres.Translate(err, "list product images")
	}
	defer func() { _ = rows.Close() }()

	images := []domain.ProductImage{}
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.Key, &img.ContentType, &img.Size, &img.CreatedAt); err != nil {
			return nil, postgres.Translate(err, "scan product image")
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "list product images")
	}
	return images, nil
}

func (r *ImageRepository) Get(ctx context.Context, productID, id int64) (*domain.ProductImage, error) {
	var img domain.ProductImage
	err := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, object_key, content_type, size_bytes, created_at
		FROM product_images
		WHERE id = $1 AND product_id = $2
	`, id, productID).Scan(&img.ID, &img.ProductID, &img.Key, &img.ContentType, &img.Size, &img.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("image %d not found for product %d", id, productID)
	}
	if err != nil {
		return nil, postgres.Translate(err, "get product image")
	}
	return &img, nil
}

func (r *ImageRepository) Create(ctx context.Context, img *domain.ProductImage) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO product_images (product_id, object_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, img.ProductID, img.Key, img.ContentType, img.Size).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		translated := postgres.Translate(err, "create product image")
		if domain.KindOf(translated) == domain.KindInvalidState {
			return domain.NotFound("product %d not found", img.ProductID)
		}
		return translated
	}
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, productID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE id = $1 AND product_id = $2`, id, productID)
	if err != nil {
		return postgres.Translate(err, "delete product image")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return postgres.Translate(err, "delete product image")
	}
	if n == 0 {
		return domain.NotFound("image %d not found for product %d", id, productID)
	}
	return nil
}

// ImageService stores product image bytes in blob storage and their
// metadata in Postgres. Blobs of deleted products are left in place.
type ImageService struct {
	products ProductStore
	images   ImageStore
	blobs    storage.Store
	logger   *slog.Logger
}

func NewImageService(products ProductStore, images ImageStore, blobs storage.Store, logger *slog.Logger) *ImageService {
	return &ImageService{products: products, images: images, blobs: blobs, logger: logger}
}

func (s *ImageService) List(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound("product %d not found", productID)
	}

	images, err := s.images.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	for i := range images {
		images[i].URL = s.blobs.URL(images[i].Key)
	}
	return images, nil
}

// Upload validates data as an image of an accepted type no larger than
// domain.MaxImageBytes, then stores it for the product.
func (s *ImageService) Upload(ctx context.Context, productID int64, data []byte) (*domain.ProductImage, error) {
	if len(data) == 0 {
		return nil, domain.InvalidArgument("image is empty")
	}
	if len(data) > domain.MaxImageBytes {
		return nil, domain.InvalidArgument("file size cannot exceed %d KB", domain.MaxImageBytes>>10)
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageTypes[contentType]
	if !ok {
		return nil, domain.InvalidArgument("unsupported image type %q", contentType)
	}

	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound("product %d not found", productID)
	}

	img := &domain.ProductImage{
		ProductID:   productID,
		Key:         fmt.Sprintf("products/%d/%s%s", productID, uuid.NewString(), ext),
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if err := s.blobs.Put(ctx, img.Key, data, contentType); err != nil {
		return nil, domain.Unavailable("store image", err)
	}
	if err := s.images.Create(ctx, img); err != nil {
		s.discard(ctx, img.Key)
		return nil, err
	}
	img.URL = s.blobs.URL(img.Key)

	s.logger.Info("product image uploaded", "product_id", productID, "image_id", img.ID, "bytes", img.Size)
	return img, nil
}

func (s *ImageService) Delete(ctx context.Context, productID, id int64) error {
	img, err := s.images.Get(ctx, productID, id)
	if err != nil {
		return err
	}
	if err := s.images.Delete(ctx, productID, id); err != nil {
		return err
	}
	s.discard(ctx, img.Key)
	return nil
}

func (s *ImageService) discard(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("orphaned product image blob", "key", key, "error", err)
	}
}

type ImageHandler struct {
	svc    *ImageService
	logger *slog.Logger
}

func NewImageHandler(svc *ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{svc: svc, logger: logger}
}

func (h *ImageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}

	images, err := h.svc.List(r.Context(), productID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list images", "product_id", productID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, images)
}

// multipartOverhead leaves room for the form framing around the file part.
const multipartOverhead = 64 << 10

// HandleUpload accepts a multipart form with the image in its "image" field.
func (h *ImageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxImageBytes+multipartOverhead)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = domain.InvalidArgument("file size cannot exceed %d KB", domain.MaxImageBytes>>10)
		} else {
			err = domain.InvalidArgument("expected a multipart form with an image field: %v", err)
		}
		httpx.WriteDomainError(w, h.logger, err, "invalid image upload", "product_id", productID)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, domain.MaxImageBytes+1))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, domain.InvalidArgument("unreadable image: %v", err), "invalid image upload", "product_id", productID)
		return
	}

	img, err := h.svc.Upload(r.Context(), productID, data)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to upload image", "product_id", productID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, img)
}

func (h *ImageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}
	imageID, err := httpx.PathID(r, "image")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid image id")
		return
	}

	if err := h.svc.Delete(r.Context(), productID, imageID); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to delete image", "product_id", productID, "image_id", imageID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
