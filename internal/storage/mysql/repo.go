package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hotel_catalog/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// SaveCatalog replaces the stored catalog with hs.
func (r *Repo) SaveCatalog(ctx context.Context, hs []domain.Hotel) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteHotelsSQL); err != nil {
		return fmt.Errorf("clear hotels: %w", err)
	}
	for start := 0; start < len(hs); start += insertBatch {
		end := min(start+insertBatch, len(hs))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*13)
		for i, h := range hs[start:end] {
			values = append(values, insertHotelsRow)
			args = append(args,
				h.ID,
				start+i,
				nonEmpty(h.Slug),
				nonEmpty(h.Link),
				h.Name,
				h.Address,
				valF64(h.Rate),
				valInt(h.Occupancy),
				valStr(h.Rating),
				nonEmpty(h.Amenities),
				nonEmpty(h.Description),
				nonEmpty(h.AttachmentsURL),
				valJSON(h.RawJSON),
			)
		}
		if _, err = tx.ExecContext(ctx, insertHotelsPrefix+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert hotels %d..%d: %w", start, end, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) LoadCatalog(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, loadHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		var h domain.Hotel
		var slug, link, rating, amen, desc, attach sql.NullString
		var rate sql.NullFloat64
		var occ sql.NullInt64
		var raw []byte
		if err := rows.Scan(&h.ID, &slug, &link, &h.Name, &h.Address, &rate, &occ, &rating, &amen, &desc, &attach, &raw); err != nil {
			return nil, err
		}
		h.Slug, h.Link = slug.String, link.String
		h.Amenities, h.Description, h.AttachmentsURL = amen.String, desc.String, attach.String
		if rate.Valid {
			f := rate.Float64
			h.Rate = &f
		}
		if occ.Valid {
			n := int(occ.Int64)
			h.Occupancy = &n
		}
		if rating.Valid {
			s := rating.String
			h.Rating = &s
		}
		if len(raw) > 0 {
			h.RawJSON = raw
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) SaveImages(ctx context.Context, hotelID int64, images []string) error {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertImagesSQL, hotelID, string(b))
	return err
}

func (r *Repo) LoadImages(ctx context.Context, hotelID int64) ([]string, error) {
	var b []byte
	if err := r.db.QueryRowContext(ctx, loadImagesSQL, hotelID).Scan(&b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode images for %d: %w", hotelID, err)
	}
	return out, nil
}
