package database

import (
	"context"
	"database/sql"
	"fmt"

	"till-go/internal/database/migrations"
	"till-go/internal/model"
)

func migrateUp(db *sql.DB) error {
	if err := migrations.Up(db); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

func readProducts(ctx context.Context, db *sql.DB) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, category, has_variants, price, stock, min_stock, barcode, unit, cost_price
		 FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	var ids []int64
	for rows.Next() {
		var (
			id                      int64
			p                       model.Product
			hasVariants             int
			price, stock, minStock  sql.NullFloat64
			costPrice               sql.NullFloat64
			barcode, unit           sql.NullString
		)
		if err := rows.Scan(&id, &p.Name, &p.Category, &hasVariants, &price, &stock, &minStock, &barcode, &unit, &costPrice); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.HasVariants = hasVariants != 0
		p.Price = nullableFloat(price)
		p.Stock = nullableFloat(stock)
		p.MinStock = nullableFloat(minStock)
		p.CostPrice = nullableFloat(costPrice)
		p.Barcode = nullableString(barcode)
		p.Unit = nullableString(unit)
		products = append(products, p)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}

	for i, id := range ids {
		variants, err := readVariants(ctx, db, id)
		if err != nil {
			return nil, err
		}
		products[i].Variants = variants
	}
	return products, nil
}

func readVariants(ctx context.Context, db *sql.DB, productID int64) ([]model.Variant, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, design, size, color, material, price, stock, min_stock,
		        barcode, cost_price, custom_attribute_label, custom_attribute_value
		 FROM variants WHERE product_id = ? ORDER BY rowid`, productID)
	if err != nil {
		return nil, fmt.Errorf("reading variants: %w", err)
	}
	defer rows.Close()

	var variants []model.Variant
	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(&v.ID, &v.Name, &v.Design, &v.Size, &v.Color, &v.Material,
			&v.Price, &v.Stock, &v.MinStock, &v.Barcode, &v.CostPrice,
			&v.CustomAttributeLabel, &v.CustomAttributeValue); err != nil {
			return nil, fmt.Errorf("scanning variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func insertProducts(ctx context.Context, tx *sql.Tx, products []model.Product) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (name, category, has_variants, price, stock, min_stock, barcode, unit, cost_price)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing product insert: %w", err)
	}
	defer stmt.Close()

	varStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO variants (id, product_id, name, design, size, color, material, price, stock, min_stock,
		                       barcode, cost_price, custom_attribute_label, custom_attribute_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing variant insert: %w", err)
	}
	defer varStmt.Close()

	for _, p := range products {
		res, err := stmt.ExecContext(ctx, p.Name, p.Category, boolToInt(p.HasVariants),
			floatArg(p.Price), floatArg(p.Stock), floatArg(p.MinStock),
			stringArg(p.Barcode), stringArg(p.Unit), floatArg(p.CostPrice))
		if err != nil {
			return fmt.Errorf("inserting product %q: %w", p.Name, err)
		}
		productID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("product id for %q: %w", p.Name, err)
		}
		for _, v := range p.Variants {
			if _, err := varStmt.ExecContext(ctx, v.ID, productID, v.Name, v.Design, v.Size, v.Color,
				v.Material, v.Price, v.Stock, v.MinStock, v.Barcode, v.CostPrice,
				v.CustomAttributeLabel, v.CustomAttributeValue); err != nil {
				return fmt.Errorf("inserting variant %q of %q: %w", v.Name, p.Name, err)
			}
		}
	}
	return nil
}

func readCustomers(ctx context.Context, db *sql.DB) ([]model.Customer, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, phone, address, balance, created_at FROM customers ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Balance, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func insertCustomers(ctx context.Context, tx *sql.Tx, customers []model.Customer) error {
	for _, c := range customers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO customers (id, name, phone, address, balance, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			c.ID, c.Name, c.Phone, c.Address, c.Balance, c.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("inserting customer %q: %w", c.ID, err)
		}
	}
	return nil
}

func readVendors(ctx context.Context, db *sql.DB) ([]model.Vendor, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, phone, address, balance FROM vendors ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading vendors: %w", err)
	}
	defer rows.Close()

	var vendors []model.Vendor
	for rows.Next() {
		var v model.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Phone, &v.Address, &v.Balance); err != nil {
			return nil, fmt.Errorf("scanning vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func insertVendors(ctx context.Context, tx *sql.Tx, vendors []model.Vendor) error {
	for _, v := range vendors {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO vendors (id, name, phone, address, balance) VALUES (?, ?, ?, ?, ?)",
			v.ID, v.Name, v.Phone, v.Address, v.Balance); err != nil {
			return fmt.Errorf("inserting vendor %q: %w", v.ID, err)
		}
	}
	return nil
}

func readSales(ctx context.Context, db *sql.DB) ([]model.Sale, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, customer_id, total, paid, items, sold_at FROM sales ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading sales: %w", err)
	}
	defer rows.Close()

	var sales []model.Sale
	for rows.Next() {
		var s model.Sale
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.Total, &s.Paid, &s.ItemsJSON, &s.SoldAt); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func insertSales(ctx context.Context, tx *sql.Tx, sales []model.Sale) error {
	for _, s := range sales {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sales (id, customer_id, total, paid, items, sold_at) VALUES (?, ?, ?, ?, ?, ?)",
			s.ID, s.CustomerID, s.Total, s.Paid, s.ItemsJSON, s.SoldAt.UTC()); err != nil {
			return fmt.Errorf("inserting sale %q: %w", s.ID, err)
		}
	}
	return nil
}

func readPurchases(ctx context.Context, db *sql.DB) ([]model.Purchase, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, vendor_id, total, paid, items, purchased_at FROM purchases ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.VendorID, &p.Total, &p.Paid, &p.ItemsJSON, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("scanning purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func insertPurchases(ctx context.Context, tx *sql.Tx, purchases []model.Purchase) error {
	for _, p := range purchases {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO purchases (id, vendor_id, total, paid, items, purchased_at) VALUES (?, ?, ?, ?, ?, ?)",
			p.ID, p.VendorID, p.Total, p.Paid, p.ItemsJSON, p.PurchasedAt.UTC()); err != nil {
			return fmt.Errorf("inserting purchase %q: %w", p.ID, err)
		}
	}
	return nil
}

func readExpenditures(ctx context.Context, db *sql.DB) ([]model.Expenditure, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, description, category, amount, spent_at FROM expenditures ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading expenditures: %w", err)
	}
	defer rows.Close()

	var expenditures []model.Expenditure
	for rows.Next() {
		var e model.Expenditure
		if err := rows.Scan(&e.ID, &e.Description, &e.Category, &e.Amount, &e.SpentAt); err != nil {
			return nil, fmt.Errorf("scanning expenditure: %w", err)
		}
		expenditures = append(expenditures, e)
	}
	return expenditures, rows.Err()
}

func insertExpenditures(ctx context.Context, tx *sql.Tx, expenditures []model.Expenditure) error {
	for _, e := range expenditures {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expenditures (id, description, category, amount, spent_at) VALUES (?, ?, ?, ?, ?)",
			e.ID, e.Description, e.Category, e.Amount, e.SpentAt.UTC()); err != nil {
			return fmt.Errorf("inserting expenditure %q: %w", e.ID, err)
		}
	}
	return nil
}

func readCreditTransactions(ctx context.Context, db *sql.DB) ([]model.CreditTransaction, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, party_type, party_id, kind, amount, note, created_at FROM credit_transactions ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading credit transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.CreditTransaction
	for rows.Next() {
		var t model.CreditTransaction
		if err := rows.Scan(&t.ID, &t.PartyType, &t.PartyID, &t.Kind, &t.Amount, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning credit transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func insertCreditTransactions(ctx context.Context, tx *sql.Tx, txs []model.CreditTransaction) error {
	for _, t := range txs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO credit_transactions (id, party_type, party_id, kind, amount, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			t.ID, t.PartyType, t.PartyID, t.Kind, t.Amount, t.Note, t.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("inserting credit transaction %q: %w", t.ID, err)
		}
	}
	return nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableString(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
