package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/interleave/internal/book"
	"github.com/hyperjump/interleave/internal/config"
	"github.com/hyperjump/interleave/internal/embedding"
	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/fileid"
	"github.com/hyperjump/interleave/internal/fixup"
	"github.com/hyperjump/interleave/internal/merge"
	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/similarity"
	"github.com/hyperjump/interleave/internal/storage"
	"github.com/hyperjump/interleave/internal/translate"
	"github.com/hyperjump/interleave/pkg/utils"
)

// persistTimeout bounds one cache write made on behalf of a fix-up pick.
const persistTimeout = 30 * time.Second

// Output formats accepted by RenderChapter.
const (
	FormatHTML = "html"
	FormatText = "text"
)

// Manager owns every open Session of one book pair.
type Manager struct {
	cfg      *config.Config
	variants models.Pair[models.SentenceVariant]
	embedder embedding.Embedder
	store    storage.Storage
	logger   *zap.Logger
	tr       translate.Translator

	mu        sync.Mutex
	books     models.Pair[*models.Book]
	namespace string
	preparer  *book.Preparer
	sessions  map[string]*Session
	byPair    map[models.ChapterPair]string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = utils.OrNop(l) }
}

// WithTranslator sets the translator used for translated sentence variants.
func WithTranslator(t translate.Translator) Option {
	return func(m *Manager) { m.tr = t }
}

// NewManager returns a Manager for books, caching into store.
func NewManager(cfg *config.Config, books models.Pair[*models.Book], embedder embedding.Embedder, store storage.Storage, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		variants: cfg.Align.Variants,
		embedder: embedder,
		store:    store,
		logger:   zap.NewNop(),
		tr:       translate.Identity{},
		sessions: make(map[string]*Session),
		byPair:   make(map[models.ChapterPair]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.setBooks(books)
	return m
}

func (m *Manager) setBooks(books models.Pair[*models.Book]) {
	m.books = books
	m.namespace = fileid.BookPairKey(books.Src.Dir, books.Dst.Dir)
	m.preparer = book.NewPreparer(models.Pair[string]{Src: books.Src.Lang, Dst: books.Dst.Lang}, m.variants, m.tr)
}

// SetBooks replaces both editions and closes every open session.
func (m *Manager) SetBooks(books models.Pair[*models.Book]) int {
	n := m.InvalidateAll()
	m.mu.Lock()
	m.setBooks(books)
	m.mu.Unlock()
	return n
}

// Books returns the two editions.
func (m *Manager) Books() models.Pair[*models.Book] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books
}

// Namespace returns the cache key prefix of the book pair.
func (m *Manager) Namespace() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.namespace
}

// Cursor returns a chapter cursor over the books, configured from books.first_chapter
// and books.chapter_delta.
func (m *Manager) Cursor() *Cursor {
	b := m.Books()
	return NewCursor(m.cfg.Books.FirstChapter, m.cfg.Books.ChapterDelta, len(b.Src.Chapters), len(b.Dst.Chapters))
}

// ChapterEntry is one chapter pair of the books with the chapter names.
type ChapterEntry struct {
	Position int                `json:"position"`
	Pair     models.ChapterPair `json:"pair"`
	SrcName  string             `json:"src_name"`
	DstName  string             `json:"dst_name"`
}

// Chapters lists every chapter pair the cursor can reach.
func (m *Manager) Chapters() []ChapterEntry {
	b := m.Books()
	cur := NewCursor(m.cfg.Books.FirstChapter, m.cfg.Books.ChapterDelta, len(b.Src.Chapters), len(b.Dst.Chapters))
	pairs := cur.Pairs()
	out := make([]ChapterEntry, 0, len(pairs))
	for k, p := range pairs {
		out = append(out, ChapterEntry{
			Position: cur.Current + k,
			Pair:     p,
			SrcName:  b.Src.Chapters[p.Src].Name,
			DstName:  b.Dst.Chapters[p.Dst].Name,
		})
	}
	return out
}

// chapters returns the chapters of pair, rejecting indices out of range and empty chapters.
func (m *Manager) chapters(pair models.ChapterPair) (models.Pair[*models.Chapter], error) {
	var out models.Pair[*models.Chapter]
	b := m.Books()
	for _, side := range []models.Side{models.Source, models.Destination} {
		chs := b.Get(side).Chapters
		idx := models.Pair[int]{Src: pair.Src, Dst: pair.Dst}.Get(side)
		if idx < 0 || idx >= len(chs) {
			return out, apperrors.NewInput("chapter", "%s chapter %d outside [0, %d)", side, idx, len(chs))
		}
		ch := &chs[idx]
		if len(ch.Paragraphs) == 0 {
			return out, apperrors.NewInput("chapter", "%s chapter %d (%s) has no paragraphs", side, idx, ch.Name)
		}
		out.Set(side, ch)
	}
	return out, nil
}

// ComputeAlignment returns the session of pair. An open session is reused unless force
// is set. Otherwise the alignment is loaded from the cache, or computed and cached.
// With force every cached record of the pair is discarded first; confirmed choices are
// carried over when align.preserve_fixed_on_realign is set.
//
// When the chapter cannot be aligned automatically (no sentences, no trusted pairs)
// the session starts in manual mode with every source paragraph unmatched.
func (m *Manager) ComputeAlignment(ctx context.Context, pair models.ChapterPair, force bool) (*Session, error) {
	chapters, err := m.chapters(pair)
	if err != nil {
		return nil, err
	}
	if !force {
		if s := m.openSession(pair); s != nil {
			return s, nil
		}
	}

	start := time.Now()
	log := m.logger.With(zap.String("chapter_pair", pair.String()))

	seqs, err := m.prepare(ctx, chapters)
	if err != nil {
		return nil, fmt.Errorf("prepare chapter pair %s: %w", pair, err)
	}
	sh := shapeOf(seqs, chapters)
	matrixFP := m.matrixFingerprint(seqs)
	fp := m.recordFingerprint(matrixFP, seqs)

	rec, err := m.loadRecord(ctx, pair, fp, sh)
	var prev *models.AlignmentRecord
	if force {
		if err != nil {
			log.Warn("discarding unreadable alignment cache", zap.Error(err))
		} else if m.cfg.Align.PreserveFixedOnRealign {
			prev = rec
		}
		n, derr := m.store.DeletePrefix(ctx, m.pairPrefix(pair))
		if derr != nil {
			return nil, fmt.Errorf("discard cache of %s: %w", pair, derr)
		}
		log.Debug("discarded cached records", zap.Int64("records", n))
		rec, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	fromCache := rec != nil
	if rec == nil {
		if rec, err = m.compute(ctx, pair, seqs, matrixFP, fp); err != nil {
			return nil, err
		}
		if prev != nil {
			if err := m.carryFixed(rec, prev, seqs); err != nil {
				return nil, err
			}
		}
		if err := m.saveRecord(ctx, pair, rec); err != nil {
			return nil, err
		}
	}

	s, err := m.newSession(pair, chapters, seqs, rec)
	if err != nil {
		return nil, err
	}
	s.FromCache = fromCache
	s = m.register(s, force)

	log.Info("chapter pair aligned",
		zap.String("session_id", s.ID),
		zap.Bool("from_cache", fromCache),
		zap.Bool("manual", s.Manual),
		zap.Int("src_sentences", seqs.Src.Len()),
		zap.Int("dst_sentences", seqs.Dst.Len()),
		zap.Int("src_paragraphs", sh.srcParagraphs),
		zap.Int("dst_paragraphs", sh.dstParagraphs),
		zap.Duration("elapsed", time.Since(start)))
	return s, nil
}

// compute builds a fresh alignment record. Automatic alignment failures produce a manual
// record instead of an error.
func (m *Manager) compute(ctx context.Context, pair models.ChapterPair, seqs models.Pair[*models.SentenceSequence], matrixFP, fp string) (*models.AlignmentRecord, error) {
	log := m.logger.With(zap.String("chapter_pair", pair.String()))
	manual := func(err error) *models.AlignmentRecord {
		log.Warn("cannot align chapter automatically, falling back to manual alignment", zap.Error(err))
		return &models.AlignmentRecord{
			ParagraphMapping: models.MappingToJSON(unmatchedMapping(seqs.Src.Paragraphs)),
			Manual:           true,
			Reason:           err.Error(),
			Fingerprint:      fp,
		}
	}

	if seqs.Src.Len() == 0 || seqs.Dst.Len() == 0 {
		return manual(apperrors.NewInput("chapter", "chapter pair %s has an empty sentence sequence", pair)), nil
	}

	sh := shape{srcSentences: seqs.Src.Len(), dstSentences: seqs.Dst.Len()}
	mat, err := m.loadMatrix(ctx, pair, matrixFP, sh)
	if err != nil {
		return nil, err
	}
	if mat == nil {
		start := time.Now()
		vecs, err := m.embed(ctx, seqs)
		if err != nil {
			return nil, err
		}
		if mat, err = similarity.Compute(vecs.Src, vecs.Dst); err != nil {
			if apperrors.IsAutoAlignFailure(err) {
				return manual(err), nil
			}
			return nil, err
		}
		if err := m.saveMatrix(ctx, pair, matrixFP, mat); err != nil {
			return nil, err
		}
		log.Debug("similarity matrix computed",
			zap.Int("rows", mat.Rows), zap.Int("cols", mat.Cols), zap.Duration("elapsed", time.Since(start)))
	} else {
		log.Debug("similarity matrix loaded from cache")
	}

	sa, err := m.alignSentences(mat, seqs)
	if err != nil {
		if apperrors.IsAutoAlignFailure(err) {
			return manual(err), nil
		}
		return nil, err
	}
	paragraphs, err := liftParagraphs(sa.Assignments, sa.GoodSrc, nil, seqs, m.cfg.Align.ConsensusThreshold)
	if err != nil {
		if apperrors.IsAutoAlignFailure(err) {
			return manual(err), nil
		}
		return nil, err
	}
	return &models.AlignmentRecord{
		Assignments:      sa.Assignments,
		ParagraphMapping: models.MappingToJSON(paragraphs),
		GoodSrc:          sa.GoodSrc,
		Fingerprint:      fp,
	}, nil
}

// carryFixed copies the confirmed choices of prev into the freshly computed rec.
func (m *Manager) carryFixed(rec, prev *models.AlignmentRecord, seqs models.Pair[*models.SentenceSequence]) error {
	n := seqs.Src.Paragraphs
	paragraphs, err := models.MappingFromJSON(rec.ParagraphMapping, n)
	if err != nil {
		return err
	}
	prevParagraphs, err := models.MappingFromJSON(prev.ParagraphMapping, n)
	if err != nil {
		return err
	}

	if !rec.Manual && len(prev.FixedSentences) > 0 && len(prev.Assignments) == len(rec.Assignments) {
		applyFixed(rec.Assignments, prev.Assignments, prev.FixedSentences)
		rec.FixedSentences = append([]int(nil), prev.FixedSentences...)
		if paragraphs, err = liftParagraphs(rec.Assignments, rec.GoodSrc, rec.FixedSentences, seqs, m.cfg.Align.ConsensusThreshold); err != nil {
			return err
		}
	}
	applyFixed(paragraphs, prevParagraphs, prev.FixedParagraphs)
	rec.FixedParagraphs = append([]int(nil), prev.FixedParagraphs...)
	rec.ParagraphMapping = models.MappingToJSON(paragraphs)
	return nil
}

// newSession wraps rec in a Session and positions it on its first fix-up point.
func (m *Manager) newSession(pair models.ChapterPair, chapters models.Pair[*models.Chapter], seqs models.Pair[*models.SentenceSequence], rec *models.AlignmentRecord) (*Session, error) {
	paragraphs, err := models.MappingFromJSON(rec.ParagraphMapping, len(chapters.Src.Paragraphs))
	if err != nil {
		return nil, apperrors.NewCacheCorruption(m.cacheKey(pair, models.TagAlignment), "%v", err)
	}
	b := m.Books()
	s := &Session{
		ID:         uuid.NewString(),
		Pair:       pair,
		Mode:       m.cfg.Align.Mode,
		CreatedAt:  time.Now(),
		Manual:     rec.Manual,
		Reason:     rec.Reason,
		Chapters:   chapters,
		Sequences:  seqs,
		Langs:      models.Pair[string]{Src: b.Src.Lang, Dst: b.Dst.Lang},
		record:     *rec,
		paragraphs: paragraphs,
	}
	if s.Manual {
		s.Mode = config.ModeParagraph
	}

	switch s.Mode {
	case config.ModeSentence:
		s.fix = fixup.NewSession(rec.Assignments, seqs.Dst.Len(),
			fixup.WithFixed(rec.FixedSentences),
			fixup.WithPersist(m.persistSentences(s)))
	default:
		s.fix = fixup.NewSession(paragraphs, len(chapters.Dst.Paragraphs),
			fixup.WithFixed(rec.FixedParagraphs),
			fixup.WithSentinelPoints(s.Manual),
			fixup.WithPersist(m.persistParagraphs(s)))
	}
	s.fix.Next()
	return s, nil
}

// persistParagraphs saves a paragraph-mode pick. Called with s.mu held.
func (m *Manager) persistParagraphs(s *Session) fixup.PersistFunc {
	return func(mapping, fixed []int) error {
		rec := s.record
		rec.ParagraphMapping = models.MappingToJSON(mapping)
		rec.FixedParagraphs = fixed
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.saveRecord(ctx, s.Pair, &rec); err != nil {
			return err
		}
		s.record, s.paragraphs = rec, mapping
		return nil
	}
}

// persistSentences saves a sentence-mode pick and re-derives the paragraph mapping.
// Called with s.mu held.
func (m *Manager) persistSentences(s *Session) fixup.PersistFunc {
	return func(assign, fixed []int) error {
		paragraphs, err := liftParagraphs(assign, s.record.GoodSrc, fixed, s.Sequences, m.cfg.Align.ConsensusThreshold)
		if err != nil {
			return err
		}
		applyFixed(paragraphs, s.paragraphs, s.record.FixedParagraphs)

		rec := s.record
		rec.Assignments = assign
		rec.FixedSentences = fixed
		rec.ParagraphMapping = models.MappingToJSON(paragraphs)
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.saveRecord(ctx, s.Pair, &rec); err != nil {
			return err
		}
		s.record, s.paragraphs = rec, paragraphs
		return nil
	}
}

// register records s as the open session of its pair. Without force an already open
// session for the pair wins and s is dropped.
func (m *Manager) register(s *Session, force bool) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byPair[s.Pair]; ok {
		if old := m.sessions[id]; old != nil {
			if !force {
				return old
			}
			if err := old.close(); err != nil {
				m.logger.Warn("close replaced session", zap.String("session_id", old.ID), zap.Error(err))
			}
			delete(m.sessions, id)
		}
	}
	m.sessions[s.ID] = s
	m.byPair[s.Pair] = s.ID
	return s
}

func (m *Manager) openSession(pair models.ChapterPair) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byPair[pair]; ok {
		return m.sessions[id]
	}
	return nil
}

// Lookup returns the open session with id.
func (m *Manager) Lookup(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFound("session", id)
	}
	return s, nil
}

// Sessions returns the open sessions ordered by chapter pair.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pair.Src != out[j].Pair.Src {
			return out[i].Pair.Src < out[j].Pair.Src
		}
		return out[i].Pair.Dst < out[j].Pair.Dst
	})
	return out
}

// Close ends the session with id. Its cached records stay.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		if m.byPair[s.Pair] == id {
			delete(m.byPair, s.Pair)
		}
	}
	m.mu.Unlock()
	if !ok {
		return apperrors.NewNotFound("session", id)
	}
	return s.close()
}

// InvalidateAll closes every open session and returns how many there were.
func (m *Manager) InvalidateAll() int {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.byPair = make(map[models.ChapterPair]string)
	m.mu.Unlock()
	for _, s := range sessions {
		if err := s.close(); err != nil {
			m.logger.Warn("failed to close session", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	return len(sessions)
}

// NextFixupPoint returns the point awaiting a choice, or false when the session is done.
func (m *Manager) NextFixupPoint(s *Session) (*FixupView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.fix.Point()
	if p == nil {
		var ok bool
		if p, ok = s.fix.Next(); !ok {
			return nil, false
		}
	}
	return s.view(p, m.cfg.Align.ViewWindow), true
}

// ConfirmFixup confirms dst for the point at src, the SrcIndex of the point returned by
// NextFixupPoint, and persists the result. Repeating a confirmation leaves the mapping
// as it is.
func (m *Manager) ConfirmFixup(ctx context.Context, s *Session, src, dst int) error {
	return m.confirm(ctx, s, func(f *fixup.Session) error { return f.Pick(src, dst) })
}

// ConfirmFixupAt sets src to dst directly, whether or not src is the current point.
func (m *Manager) ConfirmFixupAt(ctx context.Context, s *Session, src, dst int) error {
	return m.confirm(ctx, s, func(f *fixup.Session) error { return f.PickAt(src, dst) })
}

func (m *Manager) confirm(ctx context.Context, s *Session, pick func(*fixup.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := pick(s.fix); err != nil {
		return err
	}
	m.logger.Debug("fix-up confirmed",
		zap.String("session_id", s.ID),
		zap.String("state", s.fix.State().String()),
		zap.Int("fixed", len(s.fix.Fixed())))
	return nil
}

// MergeChapter returns the interleaved paragraph order of the session's current mapping.
func (m *Manager) MergeChapter(s *Session) ([]models.MergedItem, error) {
	return merge.Interleave(s.ParagraphMapping(), len(s.Chapters.Src.Paragraphs), len(s.Chapters.Dst.Paragraphs))
}

// RenderChapter writes the merged chapter in format (FormatHTML or FormatText).
func (m *Manager) RenderChapter(w io.Writer, s *Session, format string) error {
	items, err := m.MergeChapter(s)
	if err != nil {
		return err
	}
	c := merge.Chapters{Chapters: s.Chapters, Langs: s.Langs}
	switch format {
	case FormatHTML:
		return merge.RenderHTML(w, items, c)
	case FormatText, "":
		return merge.RenderText(w, items, c)
	default:
		return apperrors.NewInput("format", "unknown format %q (supported: html, text)", format)
	}
}

// CachedRecords counts the cache entries of the book pair.
func (m *Manager) CachedRecords(ctx context.Context) (int64, error) {
	return m.store.Count(ctx, m.Namespace()+"/")
}

// ClearCache deletes every cached record of the book pair and closes all sessions.
func (m *Manager) ClearCache(ctx context.Context) (int64, error) {
	m.InvalidateAll()
	return m.store.DeletePrefix(ctx, m.Namespace()+"/")
}

// IsNotFound reports whether err is a missing session or chapter.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
