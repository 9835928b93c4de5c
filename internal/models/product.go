package models

type Category string

const (
	CategoryMen   Category = "Men"
	CategoryWomen Category = "Women"
	CategoryKids  Category = "Kids"
)

var Categories = []Category{CategoryMen, CategoryWomen, CategoryKids}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type SubCategory string

const (
	SubCategoryTopwear    SubCategory = "Topwear"
	SubCategoryBottomwear SubCategory = "Bottomwear"
	SubCategoryWinterwear SubCategory = "Winterwear"
)

var SubCategories = []SubCategory{SubCategoryTopwear, SubCategoryBottomwear, SubCategoryWinterwear}

func (s SubCategory) Valid() bool {
	for _, v := range SubCategories {
		if s == v {
			return true
		}
	}
	return false
}

// Label is the human readable form shown in the category picker.
func (s SubCategory) Label() string {
	switch s {
	case SubCategoryTopwear:
		return "Top Wear"
	case SubCategoryBottomwear:
		return "Bottom Wear"
	case SubCategoryWinterwear:
		return "Winter Wear"
	default:
		return string(s)
	}
}

type Size string

const (
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

var Sizes = []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL}

func (s Size) Valid() bool {
	for _, v := range Sizes {
		if s == v {
			return true
		}
	}
	return false
}

// MaxProductImages is the number of image slots on the create form.
const MaxProductImages = 4

type Product struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Category    Category    `json:"category"`
	SubCategory SubCategory `json:"subCategory"`
	Sizes       []Size      `json:"sizes"`
	Bestseller  bool        `json:"bestseller"`
	Images      []string    `json:"image"`
	Date        Timestamp   `json:"date"`
}

// Thumbnail returns the first image URL, or "" when the product has none.
func (p Product) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type RemoveProductRequest struct {
	ID string `json:"id"`
}
