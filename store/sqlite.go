package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // 纯 Go SQLite 驱动

	"github.com/rushteam/roomrec/core"
)

// SQLiteCatalog 是 SQLite 实现的房源目录，价格以十进制文本保存以保持精度。
type SQLiteCatalog struct {
	db *sql.DB
}

// OpenSQLiteCatalog 打开（或创建）数据库并建表。
func OpenSQLiteCatalog(ctx context.Context, path string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// 单写连接，WAL 允许并发读
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	c := &SQLiteCatalog{db: db}
	if err := c.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCatalog) Close() error { return c.db.Close() }

// EnsureSchema 建表与索引，可重复调用。
func (c *SQLiteCatalog) EnsureSchema(ctx context.Context) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  price TEXT,
  category TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  neighborhood TEXT NOT NULL DEFAULT '',
  lat REAL,
  lng REAL,
  bedrooms INTEGER NOT NULL DEFAULT 0,
  bathrooms INTEGER NOT NULL DEFAULT 0,
  area REAL,
  amenities_json TEXT NOT NULL DEFAULT '[]',
  view_count INTEGER NOT NULL DEFAULT 0,
  favorite_count INTEGER NOT NULL DEFAULT 0
)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city)`,
	}
	for _, s := range stmts {
		if _, err := c.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const listingColumns = `id, title, price, category, status, city, neighborhood, lat, lng,
bedrooms, bathrooms, area, amenities_json, view_count, favorite_count`

// Upsert 写入或覆盖一批房源（同一事务）。
func (c *SQLiteCatalog) Upsert(ctx context.Context, listings ...core.Listing) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO listings (`+listingColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title=excluded.title, price=excluded.price, category=excluded.category,
  status=excluded.status, city=excluded.city, neighborhood=excluded.neighborhood,
  lat=excluded.lat, lng=excluded.lng, bedrooms=excluded.bedrooms,
  bathrooms=excluded.bathrooms, area=excluded.area, amenities_json=excluded.amenities_json,
  view_count=excluded.view_count, favorite_count=excluded.favorite_count`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, l := range listings {
		if err := l.Validate(); err != nil {
			return err
		}
		amenities, err := json.Marshal(l.Amenities)
		if err != nil {
			return fmt.Errorf("encode amenities of %s: %w", l.ID, err)
		}
		var price sql.NullString
		if l.Price.Valid {
			price = sql.NullString{String: l.Price.Decimal.String(), Valid: true}
		}
		var lat, lng, area sql.NullFloat64
		if l.Location != nil {
			lat = sql.NullFloat64{Float64: l.Location.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: l.Location.Lng, Valid: true}
		}
		if l.Area != nil {
			area = sql.NullFloat64{Float64: *l.Area, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			l.ID, l.Title, price, string(l.Category), string(l.Status), l.City, l.Neighborhood,
			lat, lng, l.Bedrooms, l.Bathrooms, area, string(amenities), l.ViewCount, l.FavoriteCount,
		); err != nil {
			return fmt.Errorf("upsert listing %s: %w", l.ID, err)
		}
	}
	return tx.Commit()
}

// Delete 删除一套房源，返回是否存在。
func (c *SQLiteCatalog) Delete(ctx context.Context, id string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Get 读取一套房源，不存在时返回 NOT_FOUND。
func (c *SQLiteCatalog) Get(ctx context.Context, id string) (*core.Listing, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFoundf(core.ModuleStore, "listing %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// AvailableListings 返回状态为 AVAILABLE（或未设置）的房源，按 ID 排序。
func (c *SQLiteCatalog) AvailableListings(ctx context.Context) ([]core.Listing, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE status IN ('', ?) ORDER BY id`,
		string(core.StatusAvailable))
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var out []core.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(r rowScanner) (*core.Listing, error) {
	var (
		l                core.Listing
		price            sql.NullString
		category, status string
		lat, lng, area   sql.NullFloat64
		amenitiesJSON    string
	)
	if err := r.Scan(&l.ID, &l.Title, &price, &category, &status, &l.City, &l.Neighborhood,
		&lat, &lng, &l.Bedrooms, &l.Bathrooms, &area, &amenitiesJSON, &l.ViewCount, &l.FavoriteCount); err != nil {
		return nil, err
	}
	l.Category = core.Category(category)
	l.Status = core.Status(status)
	if price.Valid {
		d, err := decimal.NewFromString(price.String)
		if err != nil {
			return nil, fmt.Errorf("decode price of %s: %w", l.ID, err)
		}
		l.Price = decimal.NewNullDecimal(d)
	}
	if lat.Valid && lng.Valid {
		l.Location = &core.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}
	if area.Valid {
		l.Area = core.Float(area.Float64)
	}
	if err := json.Unmarshal([]byte(amenitiesJSON), &l.Amenities); err != nil {
		return nil, fmt.Errorf("decode amenities of %s: %w", l.ID, err)
	}
	return &l, nil
}
