// Command litsearch-bench is a small smoke-test and throughput harness
// for the litsearch engine: it builds a synthetic corpus, commits it,
// and reports indexing and search throughput. Modeled on the teacher's
// accum/demo harness (flag-parsed CLI, go-humanize for readable
// counters, klog for fatal errors).
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/faithsearch/litsearch"
	"github.com/faithsearch/litsearch/schema"
	"k8s.io/klog/v2"
)

var (
	towns = []string{"Berlin", "Warsaw", "New York", "Tokyo", "Lagos"}
	words = []string{
		"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
		"search", "engine", "index", "posting", "query", "score", "rank",
		"test", "body", "document", "field", "facet", "filter", "sort",
	}
)

func main() {
	var (
		dir      string
		numDocs  int
		shardCount int
	)
	flag.StringVar(&dir, "dir", "", "index directory (temp dir if empty)")
	flag.IntVar(&numDocs, "docs", 100_000, "number of synthetic documents to index")
	flag.IntVar(&shardCount, "shards", 0, "shard count (0 = runtime.NumCPU())")
	flag.Parse()

	if dir == "" {
		tmp, err := os.MkdirTemp("", "litsearch-bench-*")
		if err != nil {
			klog.Exitf("creating temp dir: %s", err)
		}
		dir = tmp
		defer os.RemoveAll(dir)
	}

	sch, err := schema.New(
		schema.NewField("title", schema.Text, schema.Stored(), schema.Indexed(), schema.Boost(2.0)),
		schema.NewField("body", schema.Text, schema.Stored(), schema.Indexed()),
		schema.NewField("town", schema.String16, schema.Stored(), schema.Indexed(), schema.Faceted()),
		schema.NewField("price", schema.F64, schema.Stored(), schema.Faceted()),
	)
	if err != nil {
		klog.Exitf("building schema: %s", err)
	}

	opts := []litsearch.Option{}
	if shardCount > 0 {
		opts = append(opts, litsearch.ShardCount(shardCount))
	}

	idx, err := litsearch.CreateIndex(dir, litsearch.Meta{ID: "bench", Name: "litsearch-bench"}, sch, nil, opts...)
	if err != nil {
		klog.Exitf("creating index: %s", err)
	}
	defer idx.Close()

	fmt.Printf("indexing %s synthetic documents into %s\n", humanize.Comma(int64(numDocs)), dir)
	rng := rand.New(rand.NewSource(1))
	startedAt := time.Now()
	for i := 0; i < numDocs; i++ {
		doc := schema.NewDocument().
			Set("title", schema.TextValue(randomSentence(rng, 4))).
			Set("body", schema.TextValue(randomSentence(rng, 20))).
			Set("town", schema.StringValue(towns[rng.Intn(len(towns))])).
			Set("price", schema.FloatValue(schema.F64, rng.Float64()*1000))
		if _, err := idx.IndexDocument(doc); err != nil {
			klog.Exitf("indexing document %d: %s", i, err)
		}
		if (i+1)%1_000_000 == 0 {
			fmt.Printf("indexed %s documents in %s\n", humanize.Comma(int64(i+1)), time.Since(startedAt))
		}
	}
	indexElapsed := time.Since(startedAt)
	fmt.Printf("indexed %s documents in %s (%s docs/s)\n",
		humanize.Comma(int64(numDocs)), indexElapsed, humanize.Comma(int64(float64(numDocs)/indexElapsed.Seconds())))

	if err := idx.Commit(); err != nil {
		klog.Exitf("committing: %s", err)
	}
	fmt.Printf("committed in %s\n", time.Since(startedAt)-indexElapsed)

	runSearch(idx, "test", litsearch.Intersection)
	runSearch(idx, "\"quick brown\"", litsearch.Phrase)
	runSearch(idx, "search engine", litsearch.Union)
}

func runSearch(idx *litsearch.Index, query string, qt litsearch.QueryType) {
	startedAt := time.Now()
	res, err := idx.Search(litsearch.SearchRequest{
		Query:      query,
		QueryType:  qt,
		Length:     10,
		ResultType: litsearch.TopkCount,
	})
	if err != nil {
		klog.Exitf("search %q: %s", query, err)
	}
	fmt.Printf("search %-20q -> %s hits in %s (top %d returned)\n",
		query, humanize.Comma(int64(res.ResultCountTotal)), time.Since(startedAt), len(res.Results))
}

func randomSentence(rng *rand.Rand, n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += " "
		}
		s += words[rng.Intn(len(words))]
	}
	return s
}
