package importer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gitaguru/internal/blob"
	"github.com/shrimpsizemoose/gitaguru/internal/models"
	"github.com/shrimpsizemoose/gitaguru/internal/store/sqlite"
	"github.com/shrimpsizemoose/gitaguru/migrations"
)

var mp3Bytes = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x0a"), make([]byte, 32)...)

func setupImporter(t *testing.T) (*Importer, *sqlite.SQLiteStore, *blob.Memory) {
	t.Helper()
	st, err := sqlite.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations(migrations.FS))
	t.Cleanup(func() { st.Close() })

	mem := blob.NewMemory("https://cdn.example/storage")
	return New(st, mem, Config{}), st, mem
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writeJSON(t *testing.T, path, body string) string {
	t.Helper()
	writeFile(t, path, []byte(body))
	return path
}

func TestChapterTwelveImportIsIdempotent(t *testing.T) {
	im, st, _ := setupImporter(t)
	ctx := context.Background()

	file := writeJSON(t, filepath.Join(t.TempDir(), "chapter12.json"),
		`[{"chapter":12,"sloka_number":1,"sloka_text":"...","telugu_meaning":"...","english_meaning":"..."}]`)

	for run := 0; run < 2; run++ {
		_, err := im.Run(ctx, Options{ChapterFiles: []string{file}})
		require.NoError(t, err)

		chapters, err := st.ListChapters(ctx)
		require.NoError(t, err)
		require.Len(t, chapters, 1, "run %d", run)
		assert.Equal(t, 12, chapters[0].ChapterNumber)
		assert.Equal(t, "Chapter 12", chapters[0].ChapterName)

		verses, err := st.ListVerses(ctx, chapters[0].ID)
		require.NoError(t, err)
		require.Len(t, verses, 1, "run %d", run)
		assert.Equal(t, 1, verses[0].VerseNumber)
	}
}

func TestPopulateContent(t *testing.T) {
	im, st, _ := setupImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	good := writeJSON(t, filepath.Join(dir, "chapter15.json"), `[
		{"chapter":15,"chapter_name":"Purushottama Yoga","sloka_number":"2","sloka_text":"adhaś cordhvaṁ","telugu_meaning":"క్రిందకు","english_meaning":"Downwards"},
		{"chapter":15,"sloka_title":"Dhyanam","sloka_text":"x","telugu_meaning":"x","english_meaning":"x"},
		{"chapter":15,"sloka_number":1,"sloka_text":"ūrdhva-mūlam","telugu_meaning":"పైన","english_meaning":"Roots above"}
	]`)
	broken := writeJSON(t, filepath.Join(dir, "chapter16.json"), `[{"chapter":16,`)
	empty := writeJSON(t, filepath.Join(dir, "empty.json"), `[]`)
	missing := filepath.Join(dir, "nope.json")

	result, err := im.PopulateContent(ctx, []string{broken, good, empty, missing})
	require.NoError(t, err)

	assert.Len(t, result.ChaptersCreated, 1)
	assert.Len(t, result.VersesCreated, 2)
	assert.Equal(t, 1, result.VersesSkipped)
	assert.ElementsMatch(t, []string{broken, missing}, result.FailedFiles)

	chapter, err := st.GetChapterByNumber(ctx, 15)
	require.NoError(t, err)
	require.NotNil(t, chapter)
	assert.Equal(t, "Purushottama Yoga", chapter.ChapterName)

	verses, err := st.ListVerses(ctx, chapter.ID)
	require.NoError(t, err)
	require.Len(t, verses, 2)
	assert.Equal(t, 1, verses[0].VerseNumber)
	assert.Equal(t, 2, verses[1].VerseNumber)
	assert.Equal(t, "క్రిందకు", verses[1].MeaningTelugu)

	again, err := im.PopulateContent(ctx, []string{good})
	require.NoError(t, err)
	assert.Empty(t, again.ChaptersCreated)
	assert.Empty(t, again.VersesCreated)
	assert.Equal(t, 3, again.VersesSkipped)
}

func TestUploadReferenceAudio(t *testing.T) {
	im, _, mem := setupImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "12", "1.mp3"), mp3Bytes)
	writeFile(t, filepath.Join(dir, "12", "2.MP3"), mp3Bytes)
	writeFile(t, filepath.Join(dir, "12", "Pushpika.mp3"), mp3Bytes)
	writeFile(t, filepath.Join(dir, "12", "notes.txt"), []byte("not audio"))
	writeFile(t, filepath.Join(dir, "2", "10.wav"), mp3Bytes)
	writeFile(t, filepath.Join(dir, "extras", "1.mp3"), mp3Bytes)

	report, err := im.UploadReferenceAudio(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, report.FailedUploads)
	require.Len(t, report.SuccessfulUploads, 3)

	first := report.SuccessfulUploads[0]
	assert.Equal(t, 2, first.Chapter, "chapters are processed in numeric order")
	assert.Equal(t, "gita-guru/audio/2/10.wav", first.StoragePath)

	second := report.SuccessfulUploads[1]
	assert.Equal(t, "1", second.Sloka)
	assert.Equal(t, "gita-guru/audio/12/1.mp3", second.StoragePath)
	assert.Equal(t, "https://cdn.example/storage/gita-guru/audio/12/1.mp3", second.PublicURL)
	assert.Equal(t, StatusSuccess, second.Status)

	assert.Equal(t, "gita-guru/audio/12/2.mp3", report.SuccessfulUploads[2].StoragePath)
	assert.Equal(t, 3, mem.Len())

	obj, ok := mem.Get("gita-guru/audio/12/1.mp3")
	require.True(t, ok)
	assert.Equal(t, "audio/mpeg", obj.ContentType)

	// reference audio is upserted, so a second pass succeeds too
	report, err = im.UploadReferenceAudio(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, report.SuccessfulUploads, 3)
}

func TestUploadFailuresAreReported(t *testing.T) {
	im, _, mem := setupImporter(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "12", "1.mp3"), mp3Bytes)

	mem.FailWith = errors.New("bucket unavailable")
	report, err := im.UploadReferenceAudio(context.Background(), dir)
	require.NoError(t, err)

	assert.Empty(t, report.SuccessfulUploads)
	require.Len(t, report.FailedUploads, 1)
	assert.Equal(t, UploadFailure{Chapter: 12, Sloka: "1", Filename: "1.mp3", Error: "bucket unavailable"}, report.FailedUploads[0])
}

func TestRunLinksAudioAndWritesReport(t *testing.T) {
	im, st, _ := setupImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "audio", "12", "1.mp3"), mp3Bytes)
	writeFile(t, filepath.Join(dir, "audio", "12", "7.mp3"), mp3Bytes)
	file := writeJSON(t, filepath.Join(dir, "chapter12.json"),
		`[{"chapter":12,"chapter_name":"Bhakti Yoga","sloka_number":1,"sloka_text":"evaṁ satata","telugu_meaning":"ఈ విధంగా","english_meaning":"Thus"}]`)
	reportPath := filepath.Join(dir, "upload_results.json")

	summary, err := im.Run(ctx, Options{
		AudioDir:     filepath.Join(dir, "audio"),
		ChapterFiles: []string{file},
		ReportPath:   reportPath,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Linked, "verse 7 has no row to attach to")

	chapter, err := st.GetChapterByNumber(ctx, 12)
	require.NoError(t, err)
	verse, err := st.GetVerseByChapterAndNumber(ctx, chapter.ID, 1)
	require.NoError(t, err)
	require.True(t, verse.HasReferenceAudio())
	assert.Equal(t, "https://cdn.example/storage/gita-guru/audio/12/1.mp3", *verse.ReferenceAudioURL)

	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Len(t, report.SuccessfulUploads, 2)
	assert.NotNil(t, report.FailedUploads)

	summary, err = im.Run(ctx, Options{AudioDir: filepath.Join(dir, "audio"), ChapterFiles: []string{file}})
	require.NoError(t, err)
	assert.Zero(t, summary.Linked)
	assert.Empty(t, summary.Populate.ChaptersCreated)
	assert.Empty(t, summary.Populate.VersesCreated)
}

type linkFailingStore struct {
	*sqlite.SQLiteStore
}

func (s linkFailingStore) UpdateVerseAudioURL(ctx context.Context, verseID, url string) (*models.Verse, error) {
	return nil, errors.New("db down")
}

func TestRunWritesReportWhenLinkingFails(t *testing.T) {
	_, st, mem := setupImporter(t)
	im := New(linkFailingStore{st}, mem, Config{})
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "audio", "12", "1.mp3"), mp3Bytes)
	writeFile(t, filepath.Join(dir, "audio", "12", "2.mp3"), mp3Bytes)
	file := writeJSON(t, filepath.Join(dir, "chapter12.json"), `[
		{"chapter":12,"sloka_number":1,"sloka_text":"a","telugu_meaning":"a","english_meaning":"a"},
		{"chapter":12,"sloka_number":2,"sloka_text":"b","telugu_meaning":"b","english_meaning":"b"}
	]`)
	reportPath := filepath.Join(dir, "upload_results.json")

	summary, err := im.Run(ctx, Options{
		AudioDir:     filepath.Join(dir, "audio"),
		ChapterFiles: []string{file},
		ReportPath:   reportPath,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, summary.Linked)
	assert.Len(t, summary.Populate.VersesCreated, 2)

	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err, "report is saved even though linking failed")
	var report Report
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Len(t, report.SuccessfulUploads, 2)
}

func TestLinkReferenceAudioKeepsGoingAfterFailure(t *testing.T) {
	_, st, mem := setupImporter(t)
	ctx := context.Background()

	chapter, err := st.CreateChapter(ctx, 12, "Bhakti Yoga")
	require.NoError(t, err)
	for n := 1; n <= 2; n++ {
		_, err := st.CreateVerse(ctx, &models.Verse{ChapterID: chapter.ID, VerseNumber: n, Text: "x"})
		require.NoError(t, err)
	}
	uploads := []UploadResult{
		{Chapter: 12, Sloka: "1", PublicURL: "https://cdn.example/1.mp3", Status: StatusSuccess},
		{Chapter: 12, Sloka: "2", PublicURL: "https://cdn.example/2.mp3", Status: StatusSuccess},
	}

	linked, err := New(linkFailingStore{st}, mem, Config{}).LinkReferenceAudio(ctx, uploads)
	assert.Zero(t, linked)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sloka 12.1")
	assert.Contains(t, err.Error(), "sloka 12.2")
}

func TestCombinedSlokaNumberSkipsOnlyThatRecord(t *testing.T) {
	im, st, _ := setupImporter(t)
	ctx := context.Background()

	file := writeJSON(t, filepath.Join(t.TempDir(), "chapter13.json"), `[
		{"chapter":13,"sloka_number":1,"sloka_text":"arjuna uvāca","telugu_meaning":"x","english_meaning":"x"},
		{"chapter":13,"sloka_number":"13-14","sloka_text":"sarvataḥ pāṇi-pādaṁ","telugu_meaning":"x","english_meaning":"x"}
	]`)

	result, err := im.PopulateContent(ctx, []string{file})
	require.NoError(t, err)
	assert.Empty(t, result.FailedFiles)
	assert.Len(t, result.VersesCreated, 1)
	assert.Equal(t, 1, result.VersesSkipped)

	chapter, err := st.GetChapterByNumber(ctx, 13)
	require.NoError(t, err)
	require.NotNil(t, chapter)
}

func TestRecordNumbers(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"chapter":"12","sloka_number":" 4 "}`), &r))
	assert.Equal(t, FlexInt(12), r.Chapter)
	n, err := r.slokaNumber()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	r = Record{}
	require.NoError(t, json.Unmarshal([]byte(`{"chapter":12,"sloka_number":null}`), &r))
	_, err = r.slokaNumber()
	assert.ErrorIs(t, err, errNoSlokaNumber)

	r = Record{}
	require.NoError(t, json.Unmarshal([]byte(`{"chapter":12}`), &r))
	_, err = r.slokaNumber()
	assert.ErrorIs(t, err, errNoSlokaNumber)

	r = Record{}
	require.NoError(t, json.Unmarshal([]byte(`{"chapter":12,"sloka_number":"13-14"}`), &r))
	_, err = r.slokaNumber()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errNoSlokaNumber)

	assert.Error(t, json.Unmarshal([]byte(`{"chapter":"twelve"}`), &r))
}
