package resumeanalysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"resume-analyzer/internal/scoring"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `
id, owner_id, filename, file_size, overall_score,
content_score, contact_score, skills_score, experience_score,
education_score, formatting_score, keywords_score, structure_score,
extracted_text, suggestions, details, page_images, word_count,
has_contact_info, has_skills_section, has_experience, has_education,
analysis_version, processing_time_ms,
thumbnail, thumbnail_mime, thumbnail_width, thumbnail_height,
created_at, updated_at`

// Create inserts the first-phase record and returns it with its id.
func (r *PGRepo) Create(ctx context.Context, rec Record) (Record, error) {
	const query = `
INSERT INTO resume_analyses (
	owner_id, filename, file_size, overall_score,
	content_score, contact_score, skills_score, experience_score,
	education_score, formatting_score, keywords_score, structure_score,
	extracted_text, suggestions, details, page_images, word_count,
	has_contact_info, has_skills_section, has_experience, has_education,
	analysis_version, processing_time_ms, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb, $15::jsonb, $16::jsonb, $17, $18, $19, $20, $21, $22, $23, now(), now())
RETURNING id, created_at, updated_at`

	suggestions, err := marshalJSONB(nonNilSuggestions(rec.Suggestions))
	if err != nil {
		return Record{}, err
	}
	details, err := marshalJSONB(nonNilMap(rec.Details))
	if err != nil {
		return Record{}, err
	}
	pages, err := marshalJSONB(nonNilStrings(rec.PageImages))
	if err != nil {
		return Record{}, err
	}
	scores := rec.Scores.Complete()

	err = r.DB.QueryRowContext(ctx, query,
		rec.OwnerID,
		rec.Filename,
		rec.FileSize,
		rec.OverallScore,
		scores[scoring.Content],
		scores[scoring.Contact],
		scores[scoring.Skills],
		scores[scoring.Experience],
		scores[scoring.Education],
		scores[scoring.Formatting],
		scores[scoring.Keywords],
		scores[scoring.Structure],
		rec.ExtractedText,
		suggestions,
		details,
		pages,
		rec.WordCount,
		rec.HasContactInfo,
		rec.HasSkillsSection,
		rec.HasExperience,
		rec.HasEducation,
		rec.AnalysisVersion,
		rec.ProcessingTimeMs,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("insert resume analysis: %w", err)
	}
	rec.Scores = scores
	return rec, nil
}

// AttachArtifacts is the second-phase update.
func (r *PGRepo) AttachArtifacts(ctx context.Context, id int64, a Artifacts) error {
	const query = `
UPDATE resume_analyses
SET details = $1::jsonb,
    page_images = $2::jsonb,
    thumbnail = $3,
    thumbnail_mime = $4,
    thumbnail_width = $5,
    thumbnail_height = $6,
    updated_at = now()
WHERE id = $7`

	details, err := marshalJSONB(nonNilMap(a.Details))
	if err != nil {
		return err
	}
	pages, err := marshalJSONB(nonNilStrings(a.PageImages))
	if err != nil {
		return err
	}
	var (
		thumb         []byte
		mime          sql.NullString
		width, height sql.NullInt64
	)
	if a.Thumbnail != nil {
		thumb = a.Thumbnail.Data
		mime = sql.NullString{String: a.Thumbnail.MIMEType, Valid: true}
		width = sql.NullInt64{Int64: int64(a.Thumbnail.Width), Valid: true}
		height = sql.NullInt64{Int64: int64(a.Thumbnail.Height), Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, query, details, pages, thumb, mime, width, height, id)
	if err != nil {
		return fmt.Errorf("attach artifacts id=%d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a record by id.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	query := `SELECT ` + recordColumns + `
FROM resume_analyses
WHERE id = $1
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// ListByOwner lists records newest first. A limit of 0 returns all rows.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + `
FROM resume_analyses
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC`
	args := []any{ownerID}
	if limit > 0 {
		query += `
LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var (
		content, contact, skills, experience   int
		education, formatting, keywords, struc int
		suggestions, details, pages            []byte
		thumb                                  []byte
		thumbMime                              sql.NullString
		thumbWidth, thumbHeight                sql.NullInt64
	)
	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Filename,
		&rec.FileSize,
		&rec.OverallScore,
		&content,
		&contact,
		&skills,
		&experience,
		&education,
		&formatting,
		&keywords,
		&struc,
		&rec.ExtractedText,
		&suggestions,
		&details,
		&pages,
		&rec.WordCount,
		&rec.HasContactInfo,
		&rec.HasSkillsSection,
		&rec.HasExperience,
		&rec.HasEducation,
		&rec.AnalysisVersion,
		&rec.ProcessingTimeMs,
		&thumb,
		&thumbMime,
		&thumbWidth,
		&thumbHeight,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.Scores = scoring.ScoreSet{
		scoring.Content:    content,
		scoring.Contact:    contact,
		scoring.Skills:     skills,
		scoring.Experience: experience,
		scoring.Education:  education,
		scoring.Formatting: formatting,
		scoring.Keywords:   keywords,
		scoring.Structure:  struc,
	}
	if len(suggestions) > 0 {
		if err := json.Unmarshal(suggestions, &rec.Suggestions); err != nil {
			return Record{}, fmt.Errorf("decode suggestions id=%d: %w", rec.ID, err)
		}
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &rec.Details); err != nil {
			// keep the record readable without details
			rec.Details = nil
		}
	}
	if len(pages) > 0 {
		if err := json.Unmarshal(pages, &rec.PageImages); err != nil {
			rec.PageImages = nil
		}
	}
	if len(thumb) > 0 {
		rec.Thumbnail = &Thumbnail{
			Data:     thumb,
			MIMEType: thumbMime.String,
			Width:    int(thumbWidth.Int64),
			Height:   int(thumbHeight.Int64),
		}
	}
	return rec, nil
}

func marshalJSONB(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func nonNilSuggestions(s []scoring.Suggestion) []scoring.Suggestion {
	if s == nil {
		return []scoring.Suggestion{}
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

var _ Repo = (*PGRepo)(nil)
