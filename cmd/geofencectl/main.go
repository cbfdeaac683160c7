package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/config"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/logging"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/repository"
)

// geofencectl manages the operational boundary directly against the
// store, for setup and recovery without the HTTP surface.
//
//	geofencectl boundary show
//	geofencectl boundary set -sw-lat 12.70 -sw-lng 77.30 -ne-lat 13.20 -ne-lng 77.90
//	geofencectl boundary clear
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	if len(os.Args) < 3 || os.Args[1] != "boundary" {
		usage()
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch os.Args[2] {
	case "show":
		show(ctx, db)
	case "set":
		set(ctx, db, os.Args[3:])
	case "clear":
		if err := db.ClearBoundary(ctx); err != nil {
			logging.Fatalf("Failed to clear boundary: %v", err)
		}
		fmt.Println("boundary cleared")
	default:
		usage()
	}
}

func show(ctx context.Context, db *repository.SQLiteDB) {
	b, err := db.GetBoundary(ctx)
	if err != nil {
		logging.Fatalf("Failed to load boundary: %v", err)
	}
	if !b.IsSet() {
		fmt.Println("no boundary configured")
		return
	}
	fmt.Printf("southwest: %.6f, %.6f\n", b.SouthWest.Latitude, b.SouthWest.Longitude)
	fmt.Printf("northeast: %.6f, %.6f\n", b.NorthEast.Latitude, b.NorthEast.Longitude)
}

func set(ctx context.Context, db *repository.SQLiteDB, args []string) {
	fs := flag.NewFlagSet("boundary set", flag.ExitOnError)
	swLat := fs.Float64("sw-lat", 0, "southwest latitude")
	swLng := fs.Float64("sw-lng", 0, "southwest longitude")
	neLat := fs.Float64("ne-lat", 0, "northeast latitude")
	neLng := fs.Float64("ne-lng", 0, "northeast longitude")
	fs.Parse(args)

	if *swLat > *neLat || *swLng > *neLng {
		logging.Fatalf("southwest corner must be south and west of northeast corner")
	}

	b := &models.OperationalBoundary{
		SouthWest: &models.Coordinates{Latitude: *swLat, Longitude: *swLng},
		NorthEast: &models.Coordinates{Latitude: *neLat, Longitude: *neLng},
	}
	if err := db.SetBoundary(ctx, b); err != nil {
		logging.Fatalf("Failed to store boundary: %v", err)
	}
	fmt.Println("boundary updated")
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: geofencectl boundary show|set|clear")
	os.Exit(2)
}
