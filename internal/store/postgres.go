// File: shop-product-service/internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lib/pq"

	"shop-product-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound    = errors.New("store: product not found")
	ErrProductSlugExists  = errors.New("store: product slug already exists")
	ErrVariationNotFound  = errors.New("store: variation not found")
	ErrStockLevelNotFound = errors.New("store: stock level not found")
)

// PostgresStore implements the ProductStorer, VariationStorer, StockStorer
// and OrderStorer interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// --- ProductStorer Implementation ---

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product, stockLevel int64) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stockQuery := `
		INSERT INTO shop.stock_levels (level)
		VALUES ($1)
		RETURNING id, level, updated_at;
	`
	stock := &domain.StockLevel{}
	err = tx.QueryRowContext(ctx, stockQuery, stockLevel).Scan(&stock.ID, &stock.Level, &stock.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to create stock level: %w", err)
	}

	productQuery := `
		INSERT INTO shop.products (title, slug, price, currency, parent_id, published, stock_level_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, title, slug, price, currency, parent_id, published, created_at, updated_at;
	`
	var created domain.Product
	err = tx.QueryRowContext(ctx, productQuery,
		product.Title, product.Slug, product.Price, product.Currency,
		product.ParentID, product.Published, stock.ID,
	).Scan(
		&created.ID, &created.Title, &created.Slug, &created.Price, &created.Currency,
		&created.ParentID, &created.Published, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "products_slug_key") || strings.Contains(pqErr.Detail, "Key (slug)") {
				return nil, ErrProductSlugExists
			}
		}
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	created.Stock = stock

	// Products placed under a category page automatically join that category.
	if created.ParentID > 0 {
		membershipQuery := `
			INSERT INTO shop.product_category_memberships (product_id, category_id)
			SELECT $1, id FROM shop.product_categories WHERE id = $2
			ON CONFLICT DO NOTHING;
		`
		result, err := tx.ExecContext(ctx, membershipQuery, created.ID, created.ParentID)
		if err != nil {
			return nil, fmt.Errorf("store: CreateProduct failed to add category membership: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			created.CategoryIDs = []int64{created.ParentID}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to commit: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, title, slug, price, currency, parent_id, published, stock_level_id, created_at, updated_at
		FROM shop.products
		WHERE id = $1;
	`
	return s.getProduct(ctx, query, id)
}

func (s *PostgresStore) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := `
		SELECT id, title, slug, price, currency, parent_id, published, stock_level_id, created_at, updated_at
		FROM shop.products
		WHERE slug = $1;
	`
	return s.getProduct(ctx, query, slug)
}

func (s *PostgresStore) getProduct(ctx context.Context, query string, arg interface{}) (*domain.Product, error) {
	var product domain.Product
	var stockLevelID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&product.ID, &product.Title, &product.Slug, &product.Price, &product.Currency,
		&product.ParentID, &product.Published, &stockLevelID,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: getProduct failed to scan row: %w", err)
	}

	if err := s.loadProductRelations(ctx, &product, stockLevelID); err != nil {
		return nil, err
	}
	return &product, nil
}

// loadProductRelations fills in images, attributes, options, variations,
// category memberships and the product's own stock ledger. The own ledger is
// attached only when the product has no attributes: with variations present,
// availability comes from the variations' ledgers instead.
func (s *PostgresStore) loadProductRelations(ctx context.Context, product *domain.Product, stockLevelID sql.NullInt64) error {
	imagesQuery := `
		SELECT id, product_id, url, caption, sort_order
		FROM shop.product_images
		WHERE product_id = $1
		ORDER BY sort_order ASC;
	`
	rows, err := s.db.QueryContext(ctx, imagesQuery, product.ID)
	if err != nil {
		return fmt.Errorf("store: failed to query product images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Caption, &img.SortOrder); err != nil {
			return fmt.Errorf("store: failed to scan image row: %w", err)
		}
		product.Images = append(product.Images, img)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("store: image iteration error: %w", err)
	}

	attributesQuery := `
		SELECT id, product_id, title
		FROM shop.attributes
		WHERE product_id = $1
		ORDER BY id ASC;
	`
	rows, err = s.db.QueryContext(ctx, attributesQuery, product.ID)
	if err != nil {
		return fmt.Errorf("store: failed to query attributes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.Attribute
		if err := rows.Scan(&a.ID, &a.ProductID, &a.Title); err != nil {
			return fmt.Errorf("store: failed to scan attribute row: %w", err)
		}
		product.Attributes = append(product.Attributes, a)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("store: attribute iteration error: %w", err)
	}

	optionsQuery := `
		SELECT o.id, o.attribute_id, o.title
		FROM shop.options o
		JOIN shop.attributes a ON a.id = o.attribute_id
		WHERE a.product_id = $1
		ORDER BY o.id ASC;
	`
	rows, err = s.db.QueryContext(ctx, optionsQuery, product.ID)
	if err != nil {
		return fmt.Errorf("store: failed to query options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.AttributeID, &o.Title); err != nil {
			return fmt.Errorf("store: failed to scan option row: %w", err)
		}
		product.Options = append(product.Options, o)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("store: option iteration error: %w", err)
	}

	variations, err := s.ListVariationsByProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	product.Variations = variations

	categoriesQuery := `
		SELECT category_id
		FROM shop.product_category_memberships
		WHERE product_id = $1
		ORDER BY category_id ASC;
	`
	rows, err = s.db.QueryContext(ctx, categoriesQuery, product.ID)
	if err != nil {
		return fmt.Errorf("store: failed to query category memberships: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var categoryID int64
		if err := rows.Scan(&categoryID); err != nil {
			return fmt.Errorf("store: failed to scan category membership row: %w", err)
		}
		product.CategoryIDs = append(product.CategoryIDs, categoryID)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("store: category membership iteration error: %w", err)
	}

	if stockLevelID.Valid && !product.RequiresVariation() {
		stockQuery := `
			SELECT id, level, updated_at
			FROM shop.stock_levels
			WHERE id = $1;
		`
		stock := &domain.StockLevel{}
		err = s.db.QueryRowContext(ctx, stockQuery, stockLevelID.Int64).Scan(&stock.ID, &stock.Level, &stock.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrStockLevelNotFound
			}
			return fmt.Errorf("store: failed to scan stock level row: %w", err)
		}
		product.Stock = stock
	}

	return nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error) {
	var queryArgs []interface{}
	var whereClauses []string
	argID := 1

	if params.SearchQuery != nil && *params.SearchQuery != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("p.title ILIKE $%d", argID))
		queryArgs = append(queryArgs, "%"+*params.SearchQuery+"%")
		argID++
	}
	if params.CategoryID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM shop.product_category_memberships m WHERE m.product_id = p.id AND m.category_id = $%d)", argID))
		queryArgs = append(queryArgs, *params.CategoryID)
		argID++
	}
	if params.Published != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("p.published = $%d", argID))
		queryArgs = append(queryArgs, *params.Published)
		argID++
	}

	whereCondition := ""
	if len(whereClauses) > 0 {
		whereCondition = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM shop.products p" + whereCondition
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, queryArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to count products: %w", err)
	}

	if totalCount == 0 {
		return []domain.Product{}, 0, nil
	}

	sortColumn := "created_at"
	allowedSortColumns := map[string]string{
		"title":      "title",
		"price":      "price",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	if col, ok := allowedSortColumns[strings.ToLower(params.SortBy)]; ok {
		sortColumn = col
	}

	sortOrder := "ASC"
	if strings.ToUpper(params.SortOrder) == "DESC" {
		sortOrder = "DESC"
	}

	dataQueryPreamble := `
		SELECT p.id, p.title, p.slug, p.price, p.currency, p.parent_id, p.published, p.created_at, p.updated_at
		FROM shop.products p
	`
	dataQuery := fmt.Sprintf("%s%s ORDER BY p.%s %s LIMIT $%d OFFSET $%d",
		dataQueryPreamble, whereCondition, sortColumn, sortOrder, argID, argID+1)

	finalQueryArgs := append(queryArgs, params.Limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, dataQuery, finalQueryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, params.Limit)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &p.Price, &p.Currency,
			&p.ParentID, &p.Published, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}

	return products, totalCount, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE shop.products
		SET title = $1, slug = $2, price = $3, currency = $4, parent_id = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
		RETURNING id, title, slug, price, currency, parent_id, published, created_at, updated_at;
	`
	var updated domain.Product
	err := s.db.QueryRowContext(ctx, query,
		product.Title, product.Slug, product.Price, product.Currency, product.ParentID, product.ID,
	).Scan(
		&updated.ID, &updated.Title, &updated.Slug, &updated.Price, &updated.Currency,
		&updated.ParentID, &updated.Published, &updated.CreatedAt, &updated.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "products_slug_key") || strings.Contains(pqErr.Detail, "Key (slug)") {
				return nil, ErrProductSlugExists
			}
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}
	return &updated, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	query := `DELETE FROM shop.products WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) SetProductPublished(ctx context.Context, id int64, published bool) error {
	query := `
		UPDATE shop.products
		SET published = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2;
	`
	result, err := s.db.ExecContext(ctx, query, published, id)
	if err != nil {
		return fmt.Errorf("store: SetProductPublished failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: SetProductPublished failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) GetUnprocessedQuantity(ctx context.Context, productID int64) (domain.UnprocessedQuantity, error) {
	query := `
		SELECT o.status, COALESCE(SUM(li.quantity), 0)
		FROM shop.line_items li
		JOIN shop.orders o ON o.id = li.order_id
		WHERE li.product_id = $1 AND o.status IN ('Cart', 'Pending', 'Processing')
		GROUP BY o.status;
	`
	var totals domain.UnprocessedQuantity
	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return totals, fmt.Errorf("store: GetUnprocessedQuantity failed to query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var quantity int64
		if err := rows.Scan(&status, &quantity); err != nil {
			return totals, fmt.Errorf("store: GetUnprocessedQuantity failed to scan row: %w", err)
		}
		if status == "Cart" {
			totals.InCarts += quantity
		} else {
			totals.InOrders += quantity
		}
	}
	if err = rows.Err(); err != nil {
		return totals, fmt.Errorf("store: GetUnprocessedQuantity iteration error: %w", err)
	}
	return totals, nil
}

// --- VariationStorer Implementation ---

func (s *PostgresStore) CreateVariation(ctx context.Context, variation *domain.Variation, stockLevel int64) (*domain.Variation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: CreateVariation failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stockQuery := `
		INSERT INTO shop.stock_levels (level)
		VALUES ($1)
		RETURNING id, level, updated_at;
	`
	stock := domain.StockLevel{}
	err = tx.QueryRowContext(ctx, stockQuery, stockLevel).Scan(&stock.ID, &stock.Level, &stock.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: CreateVariation failed to create stock level: %w", err)
	}

	variationQuery := `
		INSERT INTO shop.variations (product_id, enabled, price_delta, stock_level_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, product_id, enabled, price_delta;
	`
	var created domain.Variation
	err = tx.QueryRowContext(ctx, variationQuery,
		variation.ProductID, variation.Enabled, variation.PriceDelta, stock.ID,
	).Scan(&created.ID, &created.ProductID, &created.Enabled, &created.PriceDelta)
	if err != nil {
		return nil, fmt.Errorf("store: CreateVariation failed to scan row: %w", err)
	}
	created.Stock = stock

	optionQuery := `INSERT INTO shop.variation_options (variation_id, option_id) VALUES ($1, $2);`
	for _, o := range variation.Options {
		if _, err := tx.ExecContext(ctx, optionQuery, created.ID, o.ID); err != nil {
			return nil, fmt.Errorf("store: CreateVariation failed to link option %d: %w", o.ID, err)
		}
	}
	created.Options = variation.Options

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: CreateVariation failed to commit: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) ListVariationsByProduct(ctx context.Context, productID int64) ([]domain.Variation, error) {
	query := `
		SELECT v.id, v.product_id, v.enabled, v.price_delta, sl.id, sl.level, sl.updated_at
		FROM shop.variations v
		JOIN shop.stock_levels sl ON sl.id = v.stock_level_id
		WHERE v.product_id = $1
		ORDER BY v.id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("store: ListVariationsByProduct failed to query variations: %w", err)
	}
	defer rows.Close()

	variations := []domain.Variation{}
	byID := make(map[int64]int)
	for rows.Next() {
		var v domain.Variation
		if err := rows.Scan(
			&v.ID, &v.ProductID, &v.Enabled, &v.PriceDelta,
			&v.Stock.ID, &v.Stock.Level, &v.Stock.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: ListVariationsByProduct failed to scan variation row: %w", err)
		}
		byID[v.ID] = len(variations)
		variations = append(variations, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListVariationsByProduct iteration error: %w", err)
	}

	if len(variations) == 0 {
		return variations, nil
	}

	optionsQuery := `
		SELECT vo.variation_id, o.id, o.attribute_id, o.title
		FROM shop.variation_options vo
		JOIN shop.options o ON o.id = vo.option_id
		JOIN shop.variations v ON v.id = vo.variation_id
		WHERE v.product_id = $1
		ORDER BY vo.variation_id ASC, o.attribute_id ASC;
	`
	rows, err = s.db.QueryContext(ctx, optionsQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("store: ListVariationsByProduct failed to query variation options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var variationID int64
		var o domain.Option
		if err := rows.Scan(&variationID, &o.ID, &o.AttributeID, &o.Title); err != nil {
			return nil, fmt.Errorf("store: ListVariationsByProduct failed to scan variation option row: %w", err)
		}
		if idx, ok := byID[variationID]; ok {
			variations[idx].Options = append(variations[idx].Options, o)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListVariationsByProduct option iteration error: %w", err)
	}

	return variations, nil
}

// --- StockStorer Implementation ---

// AdjustStockLevel applies the ledger rules in a single UPDATE so concurrent
// adjustments cannot lose updates: the unlimited sentinel is preserved and
// the level is floored at zero inside the statement.
func (s *PostgresStore) AdjustStockLevel(ctx context.Context, stockLevelID int64, delta int64) (int64, error) {
	query := `
		UPDATE shop.stock_levels
		SET level = CASE WHEN level = -1 THEN level ELSE GREATEST(level + $1, 0) END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING level;
	`
	var newLevel int64
	err := s.db.QueryRowContext(ctx, query, delta, stockLevelID).Scan(&newLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrStockLevelNotFound
		}
		return 0, fmt.Errorf("store: AdjustStockLevel failed to scan row: %w", err)
	}
	return newLevel, nil
}

// --- OrderStorer Implementation ---

func (s *PostgresStore) CreateLineItem(ctx context.Context, line *domain.LineItem) error {
	query := `
		INSERT INTO shop.line_items (id, product_id, variation_id, quantity, amount, currency, symbol)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := s.db.ExecContext(ctx, query,
		line.ID, line.ProductID, line.VariationID, line.Quantity,
		line.Price.Amount, line.Price.Currency, line.Price.Symbol,
	)
	if err != nil {
		return fmt.Errorf("store: CreateLineItem failed to insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		if err := s.db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
	}
	return nil
}
