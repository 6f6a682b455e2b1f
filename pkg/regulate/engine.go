package regulate

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/actor-rtc/proto-regulate/pkg/canonical"
	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
	"github.com/actor-rtc/proto-regulate/pkg/fingerprint"
	"github.com/actor-rtc/proto-regulate/pkg/merge"
	"github.com/actor-rtc/proto-regulate/pkg/render"
)

// Config configures an Engine.
type Config struct {
	// MaxWorkers caps concurrent package groups during merges.
	MaxWorkers int
	// CacheSize is the maximum number of cached results per operation.
	CacheSize int
	// CacheTTL is how long a cached result stays valid.
	CacheTTL time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers: runtime.GOMAXPROCS(0),
		CacheSize:  1024,
		CacheTTL:   15 * time.Minute,
	}
}

// Normalized is the cached outcome of normalizing one source text.
type Normalized struct {
	Content     string
	Fingerprint fingerprint.Value
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	ItemCount int64
}

// Engine runs normalization and merge operations with result caching.
// Cache keys are content hashes, so the same text never gets re-parsed
// within the TTL. An Engine is safe for concurrent use.
type Engine struct {
	config *Config

	normalized *lru.LRU[string, *Normalized]
	merges     *lru.LRU[string, []merge.Result]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewEngine creates an engine. A nil config selects DefaultConfig.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	size := config.CacheSize
	if size < 1 {
		size = 1
	}
	return &Engine{
		config:     config,
		normalized: lru.NewLRU[string, *Normalized](size, nil, config.CacheTTL),
		merges:     lru.NewLRU[string, []merge.Result](size, nil, config.CacheTTL),
	}
}

// Normalize parses a source text, canonicalizes it and returns the rendered
// canonical form together with its fingerprint.
func (e *Engine) Normalize(filename, text string) (*Normalized, error) {
	key := textKey("normalize", text)
	if cached, ok := e.normalized.Get(key); ok {
		e.hits.Add(1)
		return cached, nil
	}
	e.misses.Add(1)

	file, err := descriptor.Parse(filename, text)
	if err != nil {
		return nil, err
	}
	canon, err := canonical.Canonicalize(file)
	if err != nil {
		return nil, err
	}
	content, err := render.File(canon)
	if err != nil {
		return nil, err
	}
	result := &Normalized{
		Content:     content,
		Fingerprint: fingerprint.Compute(canon),
	}
	e.normalized.Add(key, result)
	return result, nil
}

// CanonicalizeText returns the canonical rendering of a source text.
func (e *Engine) CanonicalizeText(filename, text string) (string, error) {
	result, err := e.Normalize(filename, text)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// FingerprintText returns the fingerprint of a source text.
func (e *Engine) FingerprintText(filename, text string) (fingerprint.Value, error) {
	result, err := e.Normalize(filename, text)
	if err != nil {
		return fingerprint.Value{}, err
	}
	return result.Fingerprint, nil
}

// MergeTexts parses and merges source texts by package. When some package
// groups fail, the returned results still cover every group that merged
// cleanly and the error reports the first failed group, so both must be
// inspected. Only fully successful merges are cached; partial results are
// recomputed so the caller always sees the error.
func (e *Engine) MergeTexts(texts []string) ([]merge.Result, error) {
	key := textsKey("merge", texts)
	if cached, ok := e.merges.Get(key); ok {
		e.hits.Add(1)
		return cached, nil
	}
	e.misses.Add(1)

	results, err := merge.Texts(texts, &merge.Options{MaxWorkers: e.config.MaxWorkers})
	if err != nil {
		return results, err
	}
	e.merges.Add(key, results)
	return results, nil
}

// Stats returns a snapshot of cache statistics.
func (e *Engine) Stats() Stats {
	return Stats{
		Hits:      e.hits.Load(),
		Misses:    e.misses.Load(),
		ItemCount: int64(e.normalized.Len() + e.merges.Len()),
	}
}

// Purge drops all cached results.
func (e *Engine) Purge() {
	e.normalized.Purge()
	e.merges.Purge()
}

// textKey derives a cache key from an operation name and one text. The NUL
// separator keeps distinct (op, text) pairs from colliding.
func textKey(op, text string) string {
	h := sha256.New()
	h.Write([]byte(op))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// textsKey derives a cache key from an operation name and a text sequence,
// length-prefixing each text so boundaries are unambiguous.
func textsKey(op string, texts []string) string {
	h := sha256.New()
	h.Write([]byte(op))
	h.Write([]byte{0})
	var buf [8]byte
	for _, text := range texts {
		binary.BigEndian.PutUint64(buf[:], uint64(len(text)))
		h.Write(buf[:])
		h.Write([]byte(text))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

func getDefaultEngine() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = NewEngine(nil)
	})
	return defaultEngine
}

// CanonicalizeText canonicalizes a source text using the shared default engine.
func CanonicalizeText(filename, text string) (string, error) {
	return getDefaultEngine().CanonicalizeText(filename, text)
}

// FingerprintText fingerprints a source text using the shared default engine.
func FingerprintText(filename, text string) (fingerprint.Value, error) {
	return getDefaultEngine().FingerprintText(filename, text)
}

// MergeTexts merges source texts using the shared default engine.
func MergeTexts(texts []string) ([]merge.Result, error) {
	return getDefaultEngine().MergeTexts(texts)
}
