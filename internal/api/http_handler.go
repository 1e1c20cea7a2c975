// File: shop-product-service/internal/api/http_handler.go
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"shop-product-service/internal/config"
	"shop-product-service/internal/domain"
	"shop-product-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	productStore   store.ProductStorer
	variationStore store.VariationStorer
	stockStore     store.StockStorer
	orderStore     store.OrderStorer
	shop           config.ShopConfig
	validate       *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(
	ps store.ProductStorer,
	vs store.VariationStorer,
	ss store.StockStorer,
	os store.OrderStorer,
	shop config.ShopConfig,
) *HTTPHandler {
	return &HTTPHandler{
		productStore:   ps,
		variationStore: vs,
		stockStore:     ss,
		orderStore:     os,
		shop:           shop,
		validate:       validator.New(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
			http.Error(w, `{"error": "Internal server error during JSON encoding"}`, http.StatusInternalServerError)
		}
	}
}

// parseSelection converts the JSON selection object (attribute IDs arrive as
// string keys) into a domain Selection.
func parseSelection(raw map[string]int64) (domain.Selection, error) {
	sel := make(domain.Selection, len(raw))
	for key, optionID := range raw {
		attributeID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, domain.ErrInvalidSelection
		}
		sel[attributeID] = optionID
	}
	return sel, nil
}

func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// --- Product Handlers ---

// ProductCreateInput defines the expected input for creating a product.
// Stock is the initial level for the product's own ledger; it is honoured
// only while shop-wide stock checking is on, otherwise the ledger starts at
// the unlimited sentinel. Currency is not accepted: products are always
// saved in the shop's base currency.
type ProductCreateInput struct {
	Title    string          `json:"title" validate:"required,max=255"`
	Slug     string          `json:"slug" validate:"required,max=255"`
	Price    decimal.Decimal `json:"price"`
	ParentID *int64          `json:"parent_id"`
	Stock    *int64          `json:"stock" validate:"omitempty,gte=-1"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if input.Price.IsNegative() {
		respondWithError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}

	parentID := domain.ParentExempt
	if input.ParentID != nil {
		parentID = *input.ParentID
	}

	stockLevel := domain.UnlimitedStock
	if h.shop.StockCheck && input.Stock != nil {
		stockLevel = *input.Stock
	}

	product := &domain.Product{
		Title:    input.Title,
		Slug:     input.Slug,
		Price:    input.Price,
		Currency: h.shop.BaseCurrency,
		ParentID: parentID,
	}

	created, err := h.productStore.CreateProduct(r.Context(), product, stockLevel)
	if err != nil {
		log.Printf("ERROR: CreateProduct store operation failed: %v", err)
		if errors.Is(err, store.ErrProductSlugExists) {
			respondWithError(w, http.StatusConflict, store.ErrProductSlugExists.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()

	limit, err := strconv.Atoi(qParams.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	page, err := strconv.Atoi(qParams.Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	params := store.ListProductsParams{Limit: limit, Offset: offset}

	if q := qParams.Get("q"); q != "" {
		params.SearchQuery = &q
	}
	if idStr := qParams.Get("category_id"); idStr != "" {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil && id > 0 {
			params.CategoryID = &id
		} else {
			respondWithError(w, http.StatusBadRequest, "Invalid category_id format")
			return
		}
	}
	if publishedStr := qParams.Get("published"); publishedStr != "" {
		if b, err := strconv.ParseBool(publishedStr); err == nil {
			params.Published = &b
		} else {
			respondWithError(w, http.StatusBadRequest, "Invalid published value: must be true or false")
			return
		}
	}

	params.SortBy = qParams.Get("sort_by")
	params.SortOrder = qParams.Get("sort_order")

	allowedSortFields := map[string]bool{"title": true, "price": true, "created_at": true, "updated_at": true, "": true}
	if !allowedSortFields[params.SortBy] {
		respondWithError(w, http.StatusBadRequest, "Invalid sort_by field. Allowed: title, price, created_at, updated_at")
		return
	}
	if params.SortOrder != "" && strings.ToLower(params.SortOrder) != "asc" && strings.ToLower(params.SortOrder) != "desc" {
		respondWithError(w, http.StatusBadRequest, "Invalid sort_order value. Allowed: asc, desc")
		return
	}

	products, totalCount, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: ListProducts store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + limit - 1) / limit
	}
	response := struct {
		Data       []domain.Product `json:"data"`
		Pagination struct {
			Page       int `json:"page"`
			Limit      int `json:"limit"`
			TotalItems int `json:"total_items"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}{
		Data: products,
	}
	response.Pagination.Page = page
	response.Pagination.Limit = limit
	response.Pagination.TotalItems = totalCount
	response.Pagination.TotalPages = totalPages

	respondWithJSON(w, http.StatusOK, response)
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: GetProductByID store operation for ID %d failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		}
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

// ProductUpdateInput defines the expected input for updating a product.
type ProductUpdateInput struct {
	Title    string          `json:"title" validate:"required,max=255"`
	Slug     string          `json:"slug" validate:"required,max=255"`
	Price    decimal.Decimal `json:"price"`
	ParentID *int64          `json:"parent_id"`
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input ProductUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if input.Price.IsNegative() {
		respondWithError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}

	parentID := domain.ParentExempt
	if input.ParentID != nil {
		parentID = *input.ParentID
	}

	productToUpdate := &domain.Product{
		ID:       productID,
		Title:    input.Title,
		Slug:     input.Slug,
		Price:    input.Price,
		Currency: h.shop.BaseCurrency,
		ParentID: parentID,
	}

	updated, err := h.productStore.UpdateProduct(r.Context(), productToUpdate)
	if err != nil {
		log.Printf("ERROR: UpdateProduct store operation for ID %d failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else if errors.Is(err, store.ErrProductSlugExists) {
			respondWithError(w, http.StatusConflict, store.ErrProductSlugExists.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	err := h.productStore.DeleteProduct(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: DeleteProduct store operation for ID %d failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		}
		return
	}

	respondWithJSON(w, http.StatusNoContent, nil)
}

// PublishProduct guards the transition to the published state: a product
// that requires variations must have at least one enabled variation before
// it can go live.
func (h *HTTPHandler) PublishProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			log.Printf("ERROR: PublishProduct load for ID %d failed: %v", productID, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		}
		return
	}

	if err := product.ValidatePublish(); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity,
			"Cannot publish product when no variations are enabled. Please enable some product variations and try again.")
		return
	}

	if err := h.productStore.SetProductPublished(r.Context(), productID, true); err != nil {
		log.Printf("ERROR: PublishProduct update for ID %d failed: %v", productID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to publish product")
		return
	}

	product.Published = true
	respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) GetUnprocessedQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	totals, err := h.productStore.GetUnprocessedQuantity(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: GetUnprocessedQuantity for ID %d failed: %v", productID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve unprocessed quantity")
		return
	}
	respondWithJSON(w, http.StatusOK, totals)
}

// --- Variation Handlers ---

// VariationCreateInput defines the expected input for creating a variation.
// OptionIDs must reference one option per product attribute.
type VariationCreateInput struct {
	Enabled    bool            `json:"enabled"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	Stock      int64           `json:"stock" validate:"gte=-1"`
	OptionIDs  []int64         `json:"option_ids" validate:"required,min=1"`
}

func (h *HTTPHandler) CreateVariation(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input VariationCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if input.PriceDelta.IsNegative() {
		respondWithError(w, http.StatusBadRequest, "Price delta must not be negative")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			log.Printf("ERROR: CreateVariation load for ID %d failed: %v", productID, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		}
		return
	}

	// Resolve the option IDs against the product's own options.
	options := make([]domain.Option, 0, len(input.OptionIDs))
	for _, optionID := range input.OptionIDs {
		var found *domain.Option
		for i := range product.Options {
			if product.Options[i].ID == optionID {
				found = &product.Options[i]
				break
			}
		}
		if found == nil {
			respondWithError(w, http.StatusBadRequest, "Option does not belong to this product")
			return
		}
		options = append(options, *found)
	}

	variation := &domain.Variation{
		ProductID:  productID,
		Enabled:    input.Enabled,
		PriceDelta: input.PriceDelta,
		Options:    options,
	}
	if !variation.ValidFor(product.Attributes) {
		respondWithError(w, http.StatusBadRequest, "Variation must have exactly one option per product attribute")
		return
	}

	created, err := h.variationStore.CreateVariation(r.Context(), variation, input.Stock)
	if err != nil {
		log.Printf("ERROR: CreateVariation store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create variation")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListVariations(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	variations, err := h.variationStore.ListVariationsByProduct(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: ListVariations for product %d failed: %v", productID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve variations")
		return
	}
	respondWithJSON(w, http.StatusOK, variations)
}

// --- Stock Handlers ---

// StockAdjustInput carries a signed delta for the ledger: negative when
// stock is consumed, positive when it is restored (cart removal, the
// abandoned-order reclaim).
type StockAdjustInput struct {
	Delta int64 `json:"delta" validate:"required"`
}

func (h *HTTPHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	stockLevelID, ok := parseIDParam(r, "stockLevelId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid stock level ID format")
		return
	}

	var input StockAdjustInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	newLevel, err := h.stockStore.AdjustStockLevel(r.Context(), stockLevelID, input.Delta)
	if err != nil {
		log.Printf("ERROR: AdjustStock for ledger %d failed: %v", stockLevelID, err)
		if errors.Is(err, store.ErrStockLevelNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrStockLevelNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to adjust stock level")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int64{"level": newLevel})
}

// --- Storefront Handlers ---

func (h *HTTPHandler) loadProductBySlug(w http.ResponseWriter, r *http.Request) *domain.Product {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid product URL")
		return nil
	}

	product, err := h.productStore.GetProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Sorry that product could not be found")
		} else {
			log.Printf("ERROR: GetProductBySlug for %q failed: %v", slug, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		}
		return nil
	}
	return product
}

// attributeView pairs an attribute with the options currently offered for
// it, restricted to enabled, in-stock variations.
type attributeView struct {
	ID      int64           `json:"id"`
	Title   string          `json:"title"`
	Options []domain.Option `json:"options"`
}

// ShowProduct serves the storefront product page data: pricing, images and
// the attribute/option lists the add-to-cart form is built from.
func (h *HTTPHandler) ShowProduct(w http.ResponseWriter, r *http.Request) {
	product := h.loadProductBySlug(w, r)
	if product == nil {
		return
	}

	attributes := make([]attributeView, 0, len(product.Attributes))
	for _, a := range product.Attributes {
		attributes = append(attributes, attributeView{
			ID:      a.ID,
			Title:   a.Title,
			Options: product.OptionsForAttribute(a.ID),
		})
	}

	price := domain.ResolvePrice(product, nil, h.shop.BaseCurrencySymbol)
	response := struct {
		Product           *domain.Product `json:"product"`
		Price             domain.Price    `json:"price"`
		DisplayPrice      string          `json:"display_price"`
		InStock           bool            `json:"in_stock"`
		RequiresVariation bool            `json:"requires_variation"`
		Attributes        []attributeView `json:"attributes"`
	}{
		Product:           product,
		Price:             price,
		DisplayPrice:      price.Nice(),
		InStock:           product.InStock(),
		RequiresVariation: product.RequiresVariation(),
		Attributes:        attributes,
	}

	respondWithJSON(w, http.StatusOK, response)
}

// OptionsInput is the AJAX request for progressive option narrowing: the
// options already chosen plus the attribute whose dropdown is being filled.
type OptionsInput struct {
	Options         map[string]int64 `json:"options"`
	NextAttributeID int64            `json:"next_attribute_id" validate:"required,gt=0"`
}

// OptionsResponse lists the selectable options for the next attribute, keyed
// by option ID.
type OptionsResponse struct {
	Options         map[string]string `json:"options"`
	Count           int               `json:"count"`
	NextAttributeID int64             `json:"next_attribute_id"`
}

// Options returns the options available for the next attribute given the
// current partial selection. Only variations compatible with every chosen
// option contribute, so the storefront never offers a dead-end combination.
func (h *HTTPHandler) Options(w http.ResponseWriter, r *http.Request) {
	product := h.loadProductBySlug(w, r)
	if product == nil {
		return
	}

	var input OptionsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	sel, err := parseSelection(input.Options)
	if err == nil {
		err = product.ValidateSelection(sel)
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, domain.ErrInvalidSelection.Error())
		return
	}

	filtered := domain.FilterBySelection(product.Variations, sel)
	options := domain.OptionsForNextAttribute(filtered, input.NextAttributeID)

	response := OptionsResponse{
		Options:         make(map[string]string, len(options)),
		Count:           len(options),
		NextAttributeID: input.NextAttributeID,
	}
	for _, o := range options {
		response.Options[strconv.FormatInt(o.ID, 10)] = o.Title
	}

	respondWithJSON(w, http.StatusOK, response)
}

// VariationPriceInput is the AJAX request for variation pricing: the full
// selection made so far.
type VariationPriceInput struct {
	Options map[string]int64 `json:"options"`
}

// VariationPriceResponse carries the total display price and, when the
// matched variation has a positive delta, the formatted difference.
type VariationPriceResponse struct {
	TotalPrice      string `json:"totalPrice"`
	PriceDifference string `json:"priceDifference,omitempty"`
}

// VariationPrice resolves the selection to a variation and returns the total
// price for display. When no variation matches, the base price is returned
// unchanged: an unresolvable selection is not an error here, the add-to-cart
// step enforces matching.
func (h *HTTPHandler) VariationPrice(w http.ResponseWriter, r *http.Request) {
	product := h.loadProductBySlug(w, r)
	if product == nil {
		return
	}

	var input VariationPriceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	sel, err := parseSelection(input.Options)
	if err == nil {
		err = product.ValidateSelection(sel)
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, domain.ErrInvalidSelection.Error())
		return
	}

	variation := domain.FindExactMatch(product.Variations, sel)
	price := domain.ResolvePrice(product, variation, h.shop.BaseCurrencySymbol)

	response := VariationPriceResponse{
		TotalPrice:      price.Nice(),
		PriceDifference: domain.PriceDifference(product, variation, h.shop.BaseCurrencySymbol),
	}

	respondWithJSON(w, http.StatusOK, response)
}

// AddToCartInput is the storefront add request. Quantity 0 means unspecified
// and defaults to 1.
type AddToCartInput struct {
	Quantity int64            `json:"quantity" validate:"gte=0"`
	Options  map[string]int64 `json:"options"`
}

// AddToCart validates the request against the product, emits the line item
// to the order subsystem and debits the stock ledger. Stock is enforced
// here, not just reflected in the page: a direct request against an
// out-of-stock product is rejected.
func (h *HTTPHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	product := h.loadProductBySlug(w, r)
	if product == nil {
		return
	}

	var input AddToCartInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	sel, err := parseSelection(input.Options)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, domain.ErrInvalidSelection.Error())
		return
	}

	line, err := domain.BuildLine(product, input.Quantity, sel, h.shop.BaseCurrencySymbol)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOutOfStock):
			respondWithError(w, http.StatusConflict, "Sorry this product is currently out of stock. Please check back soon.")
		case errors.Is(err, domain.ErrNoMatchingVariation):
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrInvalidSelection), errors.Is(err, domain.ErrInvalidQuantity):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("ERROR: BuildLine for product %d failed: %v", product.ID, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to add product to cart")
		}
		return
	}

	if err := h.orderStore.CreateLineItem(r.Context(), line); err != nil {
		log.Printf("ERROR: CreateLineItem for product %d failed: %v", product.ID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to add product to cart")
		return
	}

	// The only place stock is consumed; removal and abandoned-order reclaim
	// apply the symmetric positive delta through the same ledger.
	if ledger := domain.StockLevelForLine(product, line); ledger != nil {
		if _, err := h.stockStore.AdjustStockLevel(r.Context(), ledger.ID, -line.Quantity); err != nil {
			log.Printf("ERROR: Stock adjustment for ledger %d failed: %v", ledger.ID, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to add product to cart")
			return
		}
	}

	respondWithJSON(w, http.StatusCreated, line)
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)

		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
			r.Post("/publish", h.PublishProduct)
			r.Post("/variations", h.CreateVariation)
			r.Get("/variations", h.ListVariations)
			r.Get("/unprocessed", h.GetUnprocessedQuantity)
		})
	})

	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Post("/{stockLevelId}/adjust", h.AdjustStock)
	})

	// Storefront actions, including the AJAX endpoints the product page
	// calls while the shopper narrows down a variation.
	r.Route("/product/{slug}", func(r chi.Router) {
		r.Get("/", h.ShowProduct)
		r.Post("/options", h.Options)
		r.Post("/variationprice", h.VariationPrice)
		r.Post("/add", h.AddToCart)
	})
}
