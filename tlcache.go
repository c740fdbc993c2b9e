// Package tlcache provides a cache-aside translation pipeline for UI text.
//
// Source strings are hashed by exact content and looked up per target locale
// in a persistent cache. Hits are substituted, misses fall back to the
// original text immediately and are translated in the background so the
// next request finds them cached.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/tlcache"
//	    "github.com/ZaguanLabs/tlcache/cache"
//	    "github.com/ZaguanLabs/tlcache/provider"
//	)
//
//	func main() {
//	    store := tlcache.NewStore(cache.NewInMemoryCache(0))
//	    adapter := tlcache.NewAdapter(provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    }))
//
//	    orchestrator := tlcache.NewOrchestrator(adapter, store)
//	    backfill := tlcache.NewBackfiller(orchestrator, tlcache.BackfillConfig{})
//	    defer backfill.Close(context.Background())
//
//	    resolver := tlcache.NewResolver(store,
//	        tlcache.WithBackfill(backfill),
//	        tlcache.WithDefaultLocale("en"),
//	    )
//
//	    // Returns "Welcome" now, "Välkommen" once the backfill has landed.
//	    out := resolver.GetTranslationsOrDefault(context.Background(), []string{"Welcome"}, "sv", "en")
//	    fmt.Println(out[0])
//	}
package tlcache
