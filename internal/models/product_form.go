package models

import (
	"fmt"
	"strconv"
)

// Image is one uploaded file held for a product image slot.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductUpload is what the backend receives when a product is created.
type ProductUpload struct {
	Name        string
	Description string
	Price       float64
	Category    Category
	SubCategory SubCategory
	Sizes       []Size
	Bestseller  bool
	Images      [MaxProductImages]*Image
}

// ProductForm is the state of the create-product screen.
type ProductForm struct {
	Name        string      `form:"name" validate:"required"`
	Description string      `form:"description" validate:"required"`
	Price       string      `form:"price" validate:"required,numeric"`
	Category    Category    `form:"category" validate:"oneof=Men Women Kids"`
	SubCategory SubCategory `form:"subCategory" validate:"oneof=Topwear Bottomwear Winterwear"`
	Sizes       []Size      `form:"sizes"`
	Bestseller  bool        `form:"bestseller"`
	Images      [MaxProductImages]*Image
}

func NewProductForm() *ProductForm {
	f := &ProductForm{}
	f.Reset()
	return f
}

// Reset restores every field to its initial value. Category and
// sub-category go back to the first option rather than blank.
func (f *ProductForm) Reset() {
	*f = ProductForm{
		Category:    Categories[0],
		SubCategory: SubCategories[0],
		Sizes:       []Size{},
	}
}

// ToggleSize adds s when absent and removes it when present, keeping the
// order in which sizes were picked.
func (f *ProductForm) ToggleSize(s Size) {
	if !s.Valid() {
		return
	}
	for i, existing := range f.Sizes {
		if existing == s {
			f.Sizes = append(f.Sizes[:i:i], f.Sizes[i+1:]...)
			return
		}
	}
	f.Sizes = append(f.Sizes, s)
}

func (f *ProductForm) HasSize(s Size) bool {
	for _, existing := range f.Sizes {
		if existing == s {
			return true
		}
	}
	return false
}

// SetImage fills or replaces slot (0-based).
func (f *ProductForm) SetImage(slot int, img *Image) error {
	if slot < 0 || slot >= MaxProductImages {
		return fmt.Errorf("image slot %d out of range", slot)
	}
	f.Images[slot] = img
	return nil
}

// Upload converts a validated form into the backend payload.
func (f *ProductForm) Upload() (ProductUpload, error) {
	price, err := strconv.ParseFloat(f.Price, 64)
	if err != nil {
		return ProductUpload{}, fmt.Errorf("invalid price %q: %w", f.Price, err)
	}

	sizes := make([]Size, len(f.Sizes))
	copy(sizes, f.Sizes)

	return ProductUpload{
		Name:        f.Name,
		Description: f.Description,
		Price:       price,
		Category:    f.Category,
		SubCategory: f.SubCategory,
		Sizes:       sizes,
		Bestseller:  f.Bestseller,
		Images:      f.Images,
	}, nil
}
