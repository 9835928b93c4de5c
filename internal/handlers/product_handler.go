package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/flash"
	"storefront-admin/internal/middleware"
	"storefront-admin/internal/models"
	"storefront-admin/internal/services"
	"storefront-admin/internal/validation"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const (
	maxUploadMemory = 32 << 20
	maxImageSize    = 10 << 20
)

type addData struct {
	Form          *models.ProductForm
	Errors        validation.FieldErrors
	Categories    []models.Category
	SubCategories []models.SubCategory
	SizeOptions   []models.Size
}

type listData struct {
	Products []models.Product
}

// draft is the create-product form of one browser. It outlives a single
// request so that uploaded images survive size toggles.
type draft struct {
	mu   sync.Mutex
	form *models.ProductForm
}

type ProductHandler struct {
	productService *services.ProductService
	view           *Renderer
	flash          *flash.Codec
	logger         zerolog.Logger

	mu     sync.Mutex
	drafts map[string]*draft
}

func NewProductHandler(productService *services.ProductService, view *Renderer, codec *flash.Codec, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		view:           view,
		flash:          codec,
		logger:         logger,
		drafts:         make(map[string]*draft),
	}
}

func (h *ProductHandler) draftFor(sessionID string) *draft {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.drafts[sessionID]
	if !ok {
		d = &draft{form: models.NewProductForm()}
		h.drafts[sessionID] = d
	}
	return d
}

// DropDraft discards the form kept for a browser, images included. It runs
// when the browser's session logs out and after a successful submit.
func (h *ProductHandler) DropDraft(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.drafts, sessionID)
}

func (h *ProductHandler) existingDraft(sessionID string) *draft {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.drafts[sessionID]
}

func (h *ProductHandler) AddPage(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	d := h.existingDraft(store.ID())
	if d == nil {
		h.renderAdd(w, http.StatusOK, models.NewProductForm(), nil, h.flash.Pop(w, r))
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	h.renderAdd(w, http.StatusOK, d.form, nil, h.flash.Pop(w, r))
}

// Add handles both size toggles and the final submission of the form.
func (h *ProductHandler) Add(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	d := h.draftFor(store.ID())
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderAdd(w, http.StatusBadRequest, d.form, nil, errorNotice("Invalid form submission"))
		return
	}
	if err := h.bindForm(r, d.form); err != nil {
		h.logger.Warn().Err(err).Msg("Rejected product image")
		h.renderAdd(w, http.StatusBadRequest, d.form, nil, errorNotice(err.Error()))
		return
	}

	if toggle := r.FormValue("toggle"); toggle != "" {
		d.form.ToggleSize(models.Size(toggle))
		h.renderAdd(w, http.StatusOK, d.form, nil, nil)
		return
	}

	msg, err := h.productService.Create(r.Context(), store, d.form)
	if err == nil {
		h.DropDraft(store.ID())
		if msg == "" {
			msg = "Product added successfully!"
		}
		redirectWithFlash(w, r, h.flash, h.logger, "/add", flash.Flash{Kind: flash.KindSuccess, Message: msg})
		return
	}
	if sessionLost(w, r, store, err, h.flash, h.logger, sessionExpiredMessage) {
		return
	}

	var fieldErrs validation.FieldErrors
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &fieldErrs):
		h.renderAdd(w, http.StatusUnprocessableEntity, d.form, fieldErrs, errorNotice("Please fill in all required fields."))
	case errors.As(err, &apiErr):
		h.renderAdd(w, http.StatusOK, d.form, nil, errorNotice("Failed to add product: "+userMessage(err, apiErr.Error())))
	default:
		h.renderAdd(w, http.StatusBadGateway, d.form, nil, errorNotice("Submission error: "+err.Error()))
	}
}

// bindForm copies the submitted fields into form. Image slots left empty
// in this submission keep the file chosen earlier.
func (h *ProductHandler) bindForm(r *http.Request, form *models.ProductForm) error {
	form.Name = r.FormValue("name")
	form.Description = r.FormValue("description")
	form.Price = r.FormValue("price")
	if c := models.Category(r.FormValue("category")); c != "" {
		form.Category = c
	}
	if sc := models.SubCategory(r.FormValue("subCategory")); sc != "" {
		form.SubCategory = sc
	}
	form.Bestseller = r.FormValue("bestseller") == "true"

	form.Sizes = []models.Size{}
	for _, v := range r.Form["sizes"] {
		s := models.Size(v)
		if !form.HasSize(s) {
			form.ToggleSize(s)
		}
	}

	if r.MultipartForm == nil {
		return nil
	}
	for slot := 0; slot < models.MaxProductImages; slot++ {
		field := fmt.Sprintf("image%d", slot+1)
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 || headers[0].Size == 0 {
			continue
		}
		fh := headers[0]
		if fh.Size > maxImageSize {
			return fmt.Errorf("%s is larger than %d MB", fh.Filename, maxImageSize>>20)
		}

		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", field, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", field, err)
		}

		if err := form.SetImage(slot, &models.Image{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *ProductHandler) renderAdd(w http.ResponseWriter, status int, form *models.ProductForm, errs validation.FieldErrors, notice *flash.Flash) {
	h.view.Render(w, status, "add", Page{
		Title:         "Add Items",
		Active:        "add",
		Authenticated: true,
		Notice:        notice,
		Data: addData{
			Form:          form,
			Errors:        errs,
			Categories:    models.Categories,
			SubCategories: models.SubCategories,
			SizeOptions:   models.Sizes,
		},
	})
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	notice := h.flash.Pop(w, r)
	products, err := h.productService.List(r.Context(), store)
	if err != nil {
		if sessionLost(w, r, store, err, h.flash, h.logger, sessionExpiredMessage) {
			return
		}
		notice = errorNotice(userMessage(err, "Failed to fetch products"))
	} else if len(products) == 0 && notice == nil {
		notice = &flash.Flash{Kind: flash.KindInfo, Message: "No products found in the database."}
	}

	h.renderList(w, products, notice)
}

// Remove deletes one product and shows the list as the backend now has it.
func (h *ProductHandler) Remove(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r)
	if !ok {
		http.Error(w, "An internal error occurred", http.StatusInternalServerError)
		return
	}

	id := mux.Vars(r)["id"]
	msg, products, err := h.productService.Remove(r.Context(), store, id)
	if err != nil {
		if sessionLost(w, r, store, err, h.flash, h.logger, sessionExpiredMessage) {
			return
		}
		var refetchErr *services.RefetchError
		if errors.As(err, &refetchErr) {
			h.renderList(w, nil, &flash.Flash{Kind: flash.KindWarning, Message: "Product removed successfully, but the list could not be reloaded: " + userMessage(err, "Failed to fetch products")})
			return
		}
		redirectWithFlash(w, r, h.flash, h.logger, "/list", flash.Flash{Kind: flash.KindError, Message: userMessage(err, "Failed to remove product")})
		return
	}

	if msg == "" {
		msg = "Product removed successfully"
	}
	h.renderList(w, products, &flash.Flash{Kind: flash.KindSuccess, Message: msg})
}

func (h *ProductHandler) renderList(w http.ResponseWriter, products []models.Product, notice *flash.Flash) {
	h.view.Render(w, http.StatusOK, "list", Page{
		Title:         "Product List",
		Active:        "list",
		Authenticated: true,
		Notice:        notice,
		Data:          listData{Products: products},
	})
}
