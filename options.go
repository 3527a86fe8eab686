package litsearch

import (
	"github.com/faithsearch/litsearch/internal/docstore"
	"github.com/faithsearch/litsearch/internal/router"
	"github.com/faithsearch/litsearch/internal/scorer"
	"github.com/faithsearch/litsearch/internal/tokenizer"
)

// config holds the fully-resolved CreateIndex/OpenIndex settings,
// following the teacher's gsfa/store functional-options pattern
// (option.go applying a slice of Option onto a private config struct).
type config struct {
	shardCount    int
	useMmap       bool
	docstoreCodec docstore.Codec

	tokenizerVariant tokenizer.Variant
	stemmer          tokenizer.Stemmer
	stopwords        *tokenizer.StopwordSet
	frequentWords    *tokenizer.FrequentDict
	ngramMask        tokenizer.KindMask

	similarity   scorer.Params
	proximity    scorer.ProximityParams
	useProximity bool

	mute bool
}

// Option configures a CreateIndex/OpenIndex call.
type Option func(*config)

func defaultConfig() config {
	return config{
		shardCount:       router.DefaultShardCount(),
		useMmap:          true,
		docstoreCodec:    docstore.CodecZstd,
		tokenizerVariant: tokenizer.UnicodeAlphanumericFolded,
		similarity:       scorer.DefaultParams,
		proximity:        scorer.DefaultProximityParams,
	}
}

func (c *config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ShardCount overrides the default (one shard per logical CPU, see
// router.DefaultShardCount).
func ShardCount(n int) Option {
	return func(c *config) { c.shardCount = n }
}

// UseMmap selects mmap'd read access for sealed levels/facets/docstore
// instead of a full in-RAM read at open time (spec.md §4.7).
func UseMmap(enabled bool) Option {
	return func(c *config) { c.useMmap = enabled }
}

// DocstoreCodec selects the document store's compression codec.
func DocstoreCodec(codec docstore.Codec) Option {
	return func(c *config) { c.docstoreCodec = codec }
}

// TokenizerVariant selects the base tokenizer (spec.md §4.1).
func TokenizerVariant(v tokenizer.Variant) Option {
	return func(c *config) { c.tokenizerVariant = v }
}

// Stemmer installs a stemming pass in the tokenizer pipeline.
func Stemmer(s tokenizer.Stemmer) Option {
	return func(c *config) { c.stemmer = s }
}

// Stopwords installs a stopword filter in the tokenizer pipeline.
func Stopwords(words []string) Option {
	return func(c *config) { c.stopwords = tokenizer.NewStopwordSet(words) }
}

// FrequentWords supplies the frequent-word dictionary n-gram rewriting
// classifies terms against (spec.md §4.5).
func FrequentWords(words []string) Option {
	return func(c *config) { c.frequentWords = tokenizer.NewFrequentDict(words) }
}

// NgramMask enables the n-gram type combinations the tokenizer pipeline
// synthesizes at index time and the query planner rewrites against.
func NgramMask(mask tokenizer.KindMask) Option {
	return func(c *config) { c.ngramMask = mask }
}

// Similarity overrides the BM25 k1/b constants.
func Similarity(p scorer.Params) Option {
	return func(c *config) { c.similarity = p }
}

// Proximity enables BM25F-proximity scoring with the given bonus
// parameters in place of plain BM25F.
func Proximity(p scorer.ProximityParams) Option {
	return func(c *config) { c.useProximity = true; c.proximity = p }
}

// Mute suppresses the index's info-level startup/commit logging.
func Mute(mute bool) Option {
	return func(c *config) { c.mute = mute }
}
