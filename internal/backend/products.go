package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"storefront-admin/internal/models"
)

// CreateProduct uploads a new product as multipart/form-data. Only filled
// image slots are sent, each under its own slot name (image1..image4).
func (c *Client) CreateProduct(ctx context.Context, token string, p models.ProductUpload) (string, error) {
	if token == "" {
		return "", c.refuse(OpCreateProduct)
	}

	body, contentType, err := encodeProduct(p)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathProductAdd, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	authorize(req, token)

	env, err := c.do(OpCreateProduct, req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func encodeProduct(p models.ProductUpload) (*bytes.Buffer, string, error) {
	sizes := p.Sizes
	if sizes == nil {
		sizes = []models.Size{}
	}
	encodedSizes, err := json.Marshal(sizes)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode sizes: %w", err)
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ name, value string }{
		{"name", p.Name},
		{"description", p.Description},
		{"price", strconv.FormatFloat(p.Price, 'f', -1, 64)},
		{"category", string(p.Category)},
		{"subCategory", string(p.SubCategory)},
		{"bestseller", strconv.FormatBool(p.Bestseller)},
		{"sizes", string(encodedSizes)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	for i, img := range p.Images {
		if img == nil {
			continue
		}
		part, err := w.CreatePart(imageHeader(fmt.Sprintf("image%d", i+1), img))
		if err != nil {
			return nil, "", fmt.Errorf("failed to add image%d: %w", i+1, err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write image%d: %w", i+1, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

func imageHeader(field string, img *models.Image) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, img.Filename))
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

// ListProducts accepts the product list under either "products" or "data".
func (c *Client) ListProducts(ctx context.Context, token string) ([]models.Product, error) {
	if token == "" {
		return nil, c.refuse(OpListProducts)
	}

	req, err := c.newJSONRequest(ctx, http.MethodGet, pathProductList, nil)
	if err != nil {
		return nil, err
	}
	authorize(req, token)

	env, err := c.do(OpListProducts, req)
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	if err := decodeList(OpListProducts, &products, env.Products, env.Data); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) RemoveProduct(ctx context.Context, token, id string) (string, error) {
	if token == "" {
		return "", c.refuse(OpRemoveProduct)
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, pathProductRemove, models.RemoveProductRequest{ID: id})
	if err != nil {
		return "", err
	}
	authorize(req, token)

	env, err := c.do(OpRemoveProduct, req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
