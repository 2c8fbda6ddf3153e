package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/similarity"
	"github.com/hyperjump/interleave/internal/storage"
)

// shape is the size of a chapter pair, used to bound-check cached records.
type shape struct {
	srcSentences, dstSentences   int
	srcParagraphs, dstParagraphs int
}

func shapeOf(seqs models.Pair[*models.SentenceSequence], chapters models.Pair[*models.Chapter]) shape {
	return shape{
		srcSentences:  seqs.Src.Len(),
		dstSentences:  seqs.Dst.Len(),
		srcParagraphs: len(chapters.Src.Paragraphs),
		dstParagraphs: len(chapters.Dst.Paragraphs),
	}
}

func (m *Manager) pairPrefix(pair models.ChapterPair) string {
	return storage.Key(m.Namespace(), pair.String()) + "/"
}

func (m *Manager) cacheKey(pair models.ChapterPair, tag models.CacheTag) string {
	return storage.Key(m.Namespace(), pair.String(), string(tag))
}

// loadRecord returns the cached alignment of pair, or nil when there is none. Records
// written for other input (fingerprint mismatch) are treated as missing; records that
// reference indices outside sh are a CacheCorruptionError.
func (m *Manager) loadRecord(ctx context.Context, pair models.ChapterPair, fingerprint string, sh shape) (*models.AlignmentRecord, error) {
	key := m.cacheKey(pair, models.TagAlignment)
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read alignment cache: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var rec models.AlignmentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, apperrors.NewCacheCorruption(key, "invalid JSON: %v", err)
	}
	if rec.Fingerprint != fingerprint {
		return nil, nil
	}
	if err := validateRecord(key, &rec, sh); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (m *Manager) saveRecord(ctx context.Context, pair models.ChapterPair, rec *models.AlignmentRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode alignment record: %w", err)
	}
	if err := m.store.Put(ctx, m.cacheKey(pair, models.TagAlignment), raw); err != nil {
		return fmt.Errorf("write alignment cache: %w", err)
	}
	return nil
}

func validateRecord(key string, rec *models.AlignmentRecord, sh shape) error {
	inRange := func(what string, xs []int, lo, hi int) error {
		for i, x := range xs {
			if x < lo || x >= hi {
				return apperrors.NewCacheCorruption(key, "%s[%d] = %d outside [%d, %d)", what, i, x, lo, hi)
			}
		}
		return nil
	}

	if !rec.Manual || len(rec.Assignments) > 0 {
		if len(rec.Assignments) != sh.srcSentences {
			return apperrors.NewCacheCorruption(key, "%d assignments for %d source sentences", len(rec.Assignments), sh.srcSentences)
		}
		if err := inRange("assignments", rec.Assignments, 0, sh.dstSentences); err != nil {
			return err
		}
	}
	if err := inRange("good_src", rec.GoodSrc, 0, sh.srcSentences); err != nil {
		return err
	}
	if err := inRange("fixed_sentences", rec.FixedSentences, 0, sh.srcSentences); err != nil {
		return err
	}
	if err := inRange("fixed_paragraphs", rec.FixedParagraphs, 0, sh.srcParagraphs); err != nil {
		return err
	}
	mapping, err := models.MappingFromJSON(rec.ParagraphMapping, sh.srcParagraphs)
	if err != nil {
		return apperrors.NewCacheCorruption(key, "%v", err)
	}
	return inRange("paragraph_mapping", mapping, models.Unmatched, sh.dstParagraphs)
}

// loadMatrix returns the cached similarity matrix of pair when it was computed from the
// same sentences (fingerprint), or nil.
func (m *Manager) loadMatrix(ctx context.Context, pair models.ChapterPair, fingerprint string, sh shape) (*similarity.Matrix, error) {
	key := m.cacheKey(pair, models.TagMatrix)
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read matrix cache: %w", err)
	}
	if !ok || !bytes.HasPrefix(raw, []byte(fingerprint)) {
		return nil, nil
	}
	mat, err := similarity.UnmarshalMatrix(raw[len(fingerprint):])
	if err != nil {
		return nil, apperrors.NewCacheCorruption(key, "%v", err)
	}
	if mat.Rows != sh.srcSentences || mat.Cols != sh.dstSentences {
		return nil, apperrors.NewCacheCorruption(key, "matrix is %dx%d, chapter pair is %dx%d",
			mat.Rows, mat.Cols, sh.srcSentences, sh.dstSentences)
	}
	return mat, nil
}

func (m *Manager) saveMatrix(ctx context.Context, pair models.ChapterPair, fingerprint string, mat *similarity.Matrix) error {
	data, err := mat.MarshalBinary()
	if err != nil {
		return err
	}
	raw := make([]byte, 0, len(fingerprint)+len(data))
	raw = append(raw, fingerprint...)
	raw = append(raw, data...)
	if err := m.store.Put(ctx, m.cacheKey(pair, models.TagMatrix), raw); err != nil {
		return fmt.Errorf("write matrix cache: %w", err)
	}
	return nil
}
