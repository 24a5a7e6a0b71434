// Command test-sources exercises each configured source adapter once and
// prints what it finds. Useful when wiring up new API credentials.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/sources"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("Probing sources for brand %q with terms %v\n\n", cfg.Brand, cfg.Keywords)

	all := []sources.Source{
		sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret),
		sources.NewTwitterSource(cfg.TwitterBearerToken),
		sources.NewYouTubeSource(cfg.YouTubeAPIKey),
		sources.NewTemptaliaSource(),
		sources.NewMakeupAlleySource(),
		sources.NewGoogleNewsSource(),
	}

	for _, src := range all {
		probeSource(ctx, src, cfg.Keywords)
	}
}

func probeSource(ctx context.Context, src sources.Source, terms []string) {
	fmt.Printf("%-12s (%s): ", src.Name(), src.Type())

	if !src.Enabled() {
		fmt.Println("not configured, skipping")
		return
	}

	start := time.Now()
	mentions, err := src.Fetch(ctx, terms, 10, 7)
	fmt.Printf("%d mentions in %v", len(mentions), time.Since(start).Round(time.Millisecond))
	if err != nil {
		fmt.Printf(" (partial: %v)", err)
	}
	fmt.Println()

	for i, m := range mentions {
		if i >= 3 {
			break
		}
		fmt.Printf("    - %s [%s] %s\n", m.PublishedAt.Format("2006-01-02"), m.MatchedKeyword, m.URL)
	}
}
