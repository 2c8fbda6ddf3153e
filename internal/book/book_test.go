package book

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/interleave/internal/extract"
	"github.com/hyperjump/interleave/internal/models"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestChapterFiles_order(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"ch10.txt":     "x",
		"ch2.txt":      "x",
		"ch1.md":       "x",
		"preface.txt":  "x",
		"appendix.txt": "x",
		".hidden.txt":  "x",
		"cover.jpg":    "x",
	})
	if err := os.Mkdir(filepath.Join(dir, "ch3.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	paths, err := ChapterFiles(dir)
	if err != nil {
		t.Fatalf("ChapterFiles: %v", err)
	}
	var got []string
	for _, p := range paths {
		got = append(got, filepath.Base(p))
	}
	want := []string{"ch1.md", "ch2.txt", "ch10.txt", "appendix.txt", "preface.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestChapterNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"ch12.txt", 12, true},
		{"007.html", 7, true},
		{"part2-ch03.xhtml", 3, true},
		{"intro.txt", 0, false},
		{"3rd.txt", 0, false},
	}
	for _, tt := range tests {
		got, ok := chapterNumber(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("chapterNumber(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"ch1.txt": "Premier paragraphe.\n\nDeuxième paragraphe.",
		"ch2.txt": "Seul paragraphe.",
	})
	b, err := Load(dir, "fr", extract.NewExtractor())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Lang != "fr" || len(b.Chapters) != 2 {
		t.Fatalf("book = %+v", b)
	}
	if b.Chapters[0].Name != "ch1" || len(b.Chapters[0].Paragraphs) != 2 {
		t.Errorf("chapter 0 = %+v", b.Chapters[0])
	}
	if b.Chapters[1].Index != 1 {
		t.Errorf("chapter 1 index = %d", b.Chapters[1].Index)
	}

	if _, err := Load(t.TempDir(), "fr", extract.NewExtractor()); err == nil {
		t.Error("expected error for empty book dir")
	}
}

type upperTranslator struct {
	calls int
	fail  bool
}

func (u *upperTranslator) Translate(_ context.Context, text string, langs models.LangPair) (string, error) {
	u.calls++
	if u.fail {
		return "", errors.New("backend down")
	}
	if langs.From != "fr" || langs.To != "en" {
		return "", errors.New("unexpected direction " + langs.String())
	}
	return strings.ToUpper(text), nil
}

func chapter(paras ...string) *models.Chapter {
	ch := &models.Chapter{Index: 0}
	for i, p := range paras {
		ch.Paragraphs = append(ch.Paragraphs, models.Paragraph{Index: i, Text: p})
	}
	return ch
}

func TestPrepare(t *testing.T) {
	tr := &upperTranslator{}
	p := NewPreparer(
		models.Pair[string]{Src: "fr", Dst: "en"},
		models.Pair[models.SentenceVariant]{Src: models.Translated, Dst: models.Original},
		tr,
	)
	ch := chapter("Il pleut. Le chat dort.", "Fin du chapitre.")

	seq, err := p.Prepare(context.Background(), models.Source, ch)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if seq.Len() != 3 || seq.Paragraphs != 2 {
		t.Fatalf("got %d sentences over %d paragraphs", seq.Len(), seq.Paragraphs)
	}
	if !reflect.DeepEqual(seq.ParagraphOf(), []int{0, 0, 1}) {
		t.Errorf("ParagraphOf = %v", seq.ParagraphOf())
	}
	second := seq.Sentences[1]
	if second.Text != "Le chat dort." || second.InParagraph != 1 || second.Tokens != 3 {
		t.Errorf("sentence 1 = %+v", second)
	}
	if second.Translated != "LE CHAT DORT." || second.TranslatedTokens != 3 {
		t.Errorf("translation = %q (%d tokens)", second.Translated, second.TranslatedTokens)
	}
	if tr.calls != 3 {
		t.Errorf("translator calls = %d, want 3", tr.calls)
	}

	dst, err := p.Prepare(context.Background(), models.Destination, chapter("It rains."))
	if err != nil {
		t.Fatalf("Prepare dst: %v", err)
	}
	if dst.Sentences[0].Translated != "" || tr.calls != 3 {
		t.Error("original-variant side should not be translated")
	}
}

func TestPrepare_translatorError(t *testing.T) {
	p := NewPreparer(
		models.Pair[string]{Src: "fr", Dst: "en"},
		models.Pair[models.SentenceVariant]{Src: models.Translated, Dst: models.Original},
		&upperTranslator{fail: true},
	)
	if _, err := p.Prepare(context.Background(), models.Source, chapter("Bonjour.")); err == nil {
		t.Fatal("expected translation error")
	}
}

func TestPrepare_emptyChapter(t *testing.T) {
	p := NewPreparer(models.Pair[string]{Src: "fr", Dst: "en"}, models.Pair[models.SentenceVariant]{}, nil)
	seq, err := p.Prepare(context.Background(), models.Source, chapter())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if seq.Len() != 0 {
		t.Errorf("len = %d", seq.Len())
	}
}
