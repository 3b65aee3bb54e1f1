package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"framework-search/internal/models"

	"github.com/lib/pq"
)

const frameworkColumns = `id, name, link, site_name, number, lot_number, value, value_number,
	start_date, end_date, service_type, description, logo, industry_or_category,
	sub_category, is_available, created_at, updated_at`

func scanFramework(row scanner) (*models.Framework, error) {
	var (
		f                      models.Framework
		valueNumber            sql.NullInt64
		logo, industry, subCat sql.NullString
		startDate, endDate     sql.NullTime
	)
	err := row.Scan(
		&f.ID, &f.Name, &f.Link, &f.SiteName, &f.Number, &f.LotNumber, &f.Value, &valueNumber,
		&startDate, &endDate, &f.ServiceType, &f.Description, &logo, &industry,
		&subCat, &f.IsAvailable, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.ValueNumber = nullInt64Ptr(valueNumber)
	f.Logo = nullStringPtr(logo)
	f.IndustryOrCategory = nullStringPtr(industry)
	f.SubCategory = nullStringPtr(subCat)
	f.StartDate = nullDatePtr(startDate)
	f.EndDate = nullDatePtr(endDate)
	return &f, nil
}

func nullDatePtr(v sql.NullTime) *models.Date {
	if !v.Valid {
		return nil
	}
	d := models.NewDate(v.Time.Year(), v.Time.Month(), v.Time.Day())
	return &d
}

// GetFramework returns ErrNotFound when no row has the id.
func (s *Store) GetFramework(ctx context.Context, id int64) (*models.Framework, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+frameworkColumns+` FROM frameworks WHERE id = $1`, id)
	f, err := scanFramework(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get framework %d: %w", id, err)
	}
	return f, nil
}

// GetFrameworks loads the rows for ids in one round trip. Ids without a row
// are absent from the map.
func (s *Store) GetFrameworks(ctx context.Context, ids []int64) (map[int64]*models.Framework, error) {
	out := make(map[int64]*models.Framework, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+frameworkColumns+` FROM frameworks WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get frameworks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFramework(rows)
		if err != nil {
			return nil, fmt.Errorf("scan framework: %w", err)
		}
		out[f.ID] = f
	}
	return out, rows.Err()
}

func (s *Store) FrameworkExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM frameworks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("framework exists: %w", err)
	}
	return exists, nil
}

// GetFrameworkRelations returns the CPV codes, documents and lots attached
// to a framework.
func (s *Store) GetFrameworkRelations(ctx context.Context, id int64) ([]int, []models.Document, []models.Lot, error) {
	cpvs := []int{}
	rows, err := s.db.QueryContext(ctx, `SELECT code FROM framework_cpvs WHERE framework_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list cpvs: %w", err)
	}
	for rows.Next() {
		var code int
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return nil, nil, nil, err
		}
		cpvs = append(cpvs, code)
	}
	rows.Close()

	documents := []models.Document{}
	rows, err = s.db.QueryContext(ctx, `SELECT name, link FROM framework_documents WHERE framework_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list documents: %w", err)
	}
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Name, &d.Link); err != nil {
			rows.Close()
			return nil, nil, nil, err
		}
		documents = append(documents, d)
	}
	rows.Close()

	lots := []models.Lot{}
	rows, err = s.db.QueryContext(ctx, `SELECT name, description FROM framework_lots WHERE framework_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l models.Lot
		if err := rows.Scan(&l.Name, &l.Description); err != nil {
			return nil, nil, nil, err
		}
		lots = append(lots, l)
	}

	return cpvs, documents, lots, rows.Err()
}

// ListIndexDocuments pages through frameworks by id for the index sync.
// Pass the last id seen as afterID; an empty result means done.
func (s *Store) ListIndexDocuments(ctx context.Context, afterID int64, limit int) ([]models.IndexedFramework, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.name, f.number, f.description, f.value_number,
		       f.industry_or_category, f.sub_category, f.start_date, f.end_date,
		       COALESCE(array_agg(c.code) FILTER (WHERE c.code IS NOT NULL), '{}')
		FROM frameworks f
		LEFT JOIN framework_cpvs c ON c.framework_id = f.id
		WHERE f.id > $1
		GROUP BY f.id
		ORDER BY f.id
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list index documents: %w", err)
	}
	defer rows.Close()

	var docs []models.IndexedFramework
	for rows.Next() {
		var (
			doc                models.IndexedFramework
			valueNumber        sql.NullInt64
			industry, subCat   sql.NullString
			startDate, endDate sql.NullTime
			codes              pq.Int64Array
		)
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Number, &doc.Description, &valueNumber,
			&industry, &subCat, &startDate, &endDate, &codes); err != nil {
			return nil, fmt.Errorf("scan index document: %w", err)
		}
		doc.ValueNumber = nullInt64Ptr(valueNumber)
		doc.IndustryOrCategory = nullStringPtr(industry)
		doc.SubCategory = nullStringPtr(subCat)
		doc.StartDate = nullDatePtr(startDate)
		doc.EndDate = nullDatePtr(endDate)
		doc.Cpvs = make([]models.IndexCpv, 0, len(codes))
		for _, code := range codes {
			doc.Cpvs = append(doc.Cpvs, models.IndexCpv{Code: int(code)})
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
