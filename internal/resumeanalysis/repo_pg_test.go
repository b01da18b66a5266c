package resumeanalysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"resume-analyzer/internal/scoring"
)

var scanColumns = []string{
	"id", "owner_id", "filename", "file_size", "overall_score",
	"content_score", "contact_score", "skills_score", "experience_score",
	"education_score", "formatting_score", "keywords_score", "structure_score",
	"extracted_text", "suggestions", "details", "page_images", "word_count",
	"has_contact_info", "has_skills_section", "has_experience", "has_education",
	"analysis_version", "processing_time_ms",
	"thumbnail", "thumbnail_mime", "thumbnail_width", "thumbnail_height",
	"created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateReturnsGeneratedID(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := Record{
		OwnerID:      "user-1",
		Filename:     "cv.pdf",
		FileSize:     2048,
		OverallScore: 72,
		Scores:       scoring.ScoreSet{scoring.Content: 80, scoring.Skills: 64},
		Suggestions: []scoring.Suggestion{
			{Title: "First", Severity: scoring.SeverityHigh},
			{Title: "Second", Severity: scoring.SeverityLow},
		},
		ExtractedText:    "Jane Doe",
		WordCount:        2,
		AnalysisVersion:  "v2",
		ProcessingTimeMs: 1500,
	}

	mock.ExpectQuery("INSERT INTO resume_analyses").
		WithArgs(
			"user-1", "cv.pdf", int64(2048), 72,
			80, 0, 64, 0, 0, 0, 0, 0,
			"Jane Doe",
			`[{"title":"First","description":"","category":"","severity":"high"},{"title":"Second","description":"","category":"","severity":"low"}]`,
			"{}",
			"[]",
			2, false, false, false, false,
			"v2", int64(1500),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), created, created))

	got, err := repo.Create(context.Background(), rec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != 42 || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record id=%d created=%v", got.ID, got.CreatedAt)
	}
	if len(got.Scores) != len(scoring.Dimensions) {
		t.Fatalf("expected completed score set, got %v", got.Scores)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAttachArtifacts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE resume_analyses").
		WithArgs(
			sqlmock.AnyArg(),
			`["/api/resume/image/7/1"]`,
			[]byte("png"),
			"image/png",
			int64(1700),
			int64(2200),
			int64(7),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AttachArtifacts(context.Background(), 7, Artifacts{
		Details:    map[string]any{"pageImages": []string{"/api/resume/image/7/1"}},
		PageImages: []string{"/api/resume/image/7/1"},
		Thumbnail:  &Thumbnail{Data: []byte("png"), MIMEType: "image/png", Width: 1700, Height: 2200},
	})
	if err != nil {
		t.Fatalf("AttachArtifacts: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAttachArtifactsMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE resume_analyses").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AttachArtifacts(context.Background(), 9, Artifacts{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM resume_analyses").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(scanColumns))

	if _, err := repo.GetByID(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetByIDDecodesRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM resume_analyses").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(scanColumns).AddRow(
			int64(3), "user-1", "cv.pdf", int64(1024), 70,
			81, 82, 83, 84, 85, 86, 87, 88,
			"text",
			`[{"title":"B","severity":"low"},{"title":"A","severity":"high"}]`,
			`{"analysisMethod":"text"}`,
			`["/api/resume/image/3/1"]`,
			120, true, true, false, true,
			"v2", int64(900),
			[]byte("thumb"), "image/png", int64(10), int64(20),
			created, created,
		))

	rec, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Scores[scoring.Content] != 81 || rec.Scores[scoring.Structure] != 88 {
		t.Fatalf("unexpected scores %v", rec.Scores)
	}
	if len(rec.Suggestions) != 2 || rec.Suggestions[0].Title != "B" || rec.Suggestions[1].Title != "A" {
		t.Fatalf("suggestion order not preserved: %+v", rec.Suggestions)
	}
	if rec.Details["analysisMethod"] != "text" {
		t.Fatalf("unexpected details %v", rec.Details)
	}
	if len(rec.PageImages) != 1 || rec.Thumbnail == nil || rec.Thumbnail.Height != 20 {
		t.Fatalf("unexpected artifacts pages=%v thumb=%+v", rec.PageImages, rec.Thumbnail)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByOwnerAppliesLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM resume_analyses (.+) LIMIT").
		WithArgs("user-1", 2).
		WillReturnRows(sqlmock.NewRows(scanColumns).AddRow(
			int64(2), "user-1", "b.pdf", int64(1), 60,
			0, 0, 0, 0, 0, 0, 0, 0,
			"", "[]", "{}", "[]",
			0, false, false, false, false,
			"v2", int64(1),
			nil, nil, nil, nil,
			created, created,
		))

	recs, err := repo.ListByOwner(context.Background(), "user-1", 2)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(recs) != 1 || recs[0].Thumbnail != nil {
		t.Fatalf("unexpected records %+v", recs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
