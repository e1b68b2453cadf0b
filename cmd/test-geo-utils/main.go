package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Nicola-Bdewi/smartrajet/internal/lib/geo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	geoUtils := geo.NewGeoUtils()

	switch command {
	case "point-distance":
		handlePointDistance(geoUtils)
	case "polyline-distance":
		handlePolylineDistance(geoUtils)
	case "decode-polyline":
		handleDecodePolyline(geoUtils)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handlePointDistance(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("point-distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils point-distance --lat1 45.5017 --lng1 -73.5673 --lat2 45.5579 --lng2 -73.5515")
		fmt.Println("  (Distance between downtown Montréal and the Olympic Stadium)")
		os.Exit(1)
	}

	p1 := geo.Point{Latitude: *lat1, Longitude: *lng1}
	p2 := geo.Point{Latitude: *lat2, Longitude: *lng2}

	distance, err := geoUtils.PointToPoint(p1, p2)
	if err != nil {
		log.Fatalf("Error calculating distance: %v", err)
	}

	fmt.Printf("Distance between points:\n")
	fmt.Printf("  Point 1: (%.6f, %.6f)\n", p1.Latitude, p1.Longitude)
	fmt.Printf("  Point 2: (%.6f, %.6f)\n", p2.Latitude, p2.Longitude)
	fmt.Printf("  Distance: %.2f meters (%.2f km)\n", distance, distance/1000)
}

func handlePolylineDistance(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("polyline-distance", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude of the point")
	lng := fs.Float64("lng", 0, "Longitude of the point")
	coords := fs.String("polyline", "", "Comma-separated lat,lng pairs: lat1,lng1,lat2,lng2,...")

	fs.Parse(os.Args[2:])

	if *coords == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils polyline-distance --lat 45.5020 --lng -73.5670 \\")
		fmt.Println("    --polyline 45.5010,-73.5673,45.5030,-73.5673")
		os.Exit(1)
	}

	polyline, err := parsePolyline(*coords)
	if err != nil {
		log.Fatalf("Error parsing polyline: %v", err)
	}

	point := geo.Point{Latitude: *lat, Longitude: *lng}
	distance, err := geoUtils.PointToPolyline(point, polyline)
	if err != nil {
		log.Fatalf("Error calculating distance: %v", err)
	}

	fmt.Printf("Point to polyline distance:\n")
	fmt.Printf("  Point: (%.6f, %.6f)\n", point.Latitude, point.Longitude)
	fmt.Printf("  Polyline: %d points\n", len(polyline.Points))
	fmt.Printf("  Distance: %.2f meters\n", distance)
}

func handleDecodePolyline(geoUtils geo.GeoUtils) {
	fs := flag.NewFlagSet("decode-polyline", flag.ExitOnError)
	encoded := fs.String("encoded", "", "Encoded polyline string")

	fs.Parse(os.Args[2:])

	if *encoded == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-geo-utils decode-polyline --encoded '_p~iF~ps|U_ulLnnqC'")
		os.Exit(1)
	}

	points, err := geoUtils.DecodePolyline(*encoded)
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}

	fmt.Printf("Decoded %d points:\n", len(points))
	for i, p := range points {
		fmt.Printf("  %d: (%.6f, %.6f)\n", i, p.Latitude, p.Longitude)
	}
}

// parsePolyline parses "lat1,lng1,lat2,lng2,..." into a polyline.
func parsePolyline(coords string) (geo.Polyline, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 4 || len(parts)%2 != 0 {
		return geo.Polyline{}, fmt.Errorf("need an even number of values and at least 2 points, got %d values", len(parts))
	}

	points := make([]geo.Point, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return geo.Polyline{}, fmt.Errorf("invalid latitude %q: %w", parts[i], err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
		if err != nil {
			return geo.Polyline{}, fmt.Errorf("invalid longitude %q: %w", parts[i+1], err)
		}
		points = append(points, geo.Point{Latitude: lat, Longitude: lng})
	}

	return geo.Polyline{Points: points}, nil
}

func printUsage() {
	fmt.Println("Geo utilities test tool")
	fmt.Println()
	fmt.Println("Usage: test-geo-utils <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  point-distance     Haversine distance between two points")
	fmt.Println("  polyline-distance  Minimum distance from a point to a polyline")
	fmt.Println("  decode-polyline    Decode an encoded polyline string")
	fmt.Println("  help               Show this help")
}
