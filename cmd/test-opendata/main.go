package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Nicola-Bdewi/smartrajet/internal/clients/opendata"
	"github.com/Nicola-Bdewi/smartrajet/internal/lib/construction"
	"github.com/Nicola-Bdewi/smartrajet/internal/lib/geo"
)

func main() {
	var (
		obstructionsURL = flag.String("entraves", os.Getenv("ENTRAVES_URL"), "Obstructions dataset URL")
		impactsURL      = flag.String("impacts", os.Getenv("IMPACTS_URL"), "Impacts dataset URL")
		lat             = flag.Float64("lat", 45.5017, "Latitude for proximity filtering")
		lon             = flag.Float64("lon", -73.5673, "Longitude for proximity filtering")
		radius          = flag.Float64("radius", 0, "Radius in meters; 0 disables filtering")
		limit           = flag.Int("limit", 10, "Max records to print")
		help            = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *obstructionsURL == "" || *impactsURL == "" {
		fmt.Printf("Road-work dataset test tool\n\n")
		fmt.Printf("Fetches the obstructions and impacts datasets, joins them and prints\n")
		fmt.Printf("a summary with impact classification.\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s -entraves=<url> -impacts=<url>\n", os.Args[0])
		fmt.Printf("  %s -radius=500  # only constructions within 500m of downtown\n", os.Args[0])
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := opendata.NewClient(*obstructionsURL, *impactsURL)

	fmt.Printf("Fetching obstructions...\n")
	obstructions, err := client.FetchObstructions(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch obstructions: %v", err)
	}
	fmt.Printf("  %d records\n", len(obstructions))

	fmt.Printf("Fetching impacts...\n")
	impacts, err := client.FetchImpacts(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch impacts: %v", err)
	}
	fmt.Printf("  %d records\n", len(impacts))

	enriched := construction.Enrich(obstructions, impacts)
	fmt.Printf("Joined: %d enriched constructions\n\n", len(enriched))

	if *radius > 0 {
		filter := construction.NewProximityFilter(geo.NewGeoUtils())
		center := geo.Point{Latitude: *lat, Longitude: *lon}
		enriched = filter.FilterByPoint(enriched, center, *radius)
		fmt.Printf("Within %.0fm of (%.4f, %.4f): %d\n\n", *radius, *lat, *lon, len(enriched))
	}

	counts := map[construction.ImpactCategory]int{}
	for _, c := range enriched {
		counts[construction.Classify(c)]++
	}
	fmt.Printf("Impact breakdown:\n")
	for _, category := range []construction.ImpactCategory{
		construction.ImpactNone,
		construction.ImpactSidewalkOnly,
		construction.ImpactTransitOnly,
		construction.ImpactBoth,
	} {
		fmt.Printf("  %-14s %d\n", category, counts[category])
	}
	fmt.Println()

	for i, c := range enriched {
		if i >= *limit {
			fmt.Printf("  ... and %d more\n", len(enriched)-*limit)
			break
		}
		fmt.Printf("  [%s] %s (%.5f, %.5f) %s, starts %s\n",
			construction.Classify(c), c.StreetName, c.Latitude, c.Longitude, c.Reason, c.StartDate)
	}
}
