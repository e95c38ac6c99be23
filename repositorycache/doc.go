// Package repositorycache serves the district and building directory
// listings from go-repository-bun repositories through the process-wide
// short-lived cache.
//
// # Overview
//
// Listings are read often and change rarely, so each one is cached under a
// well-known key for ListingTTL:
//
//   - districts: every district with its building count
//   - buildings:all: every building with its district and apartment count
//   - buildings:district:<id>: the buildings of one district
//
// The keys are shared with the mutation gateway, which invalidates them
// after district, building and apartment writes.
//
// # Basic Usage
//
//	districts := repository.NewRepository[*model.District](db, districtHandlers)
//	buildings := repository.NewRepository[*model.Building](db, buildingHandlers)
//
//	dir := repositorycache.NewDirectory(districts, buildings, shared, logger)
//	all, err := dir.Buildings(ctx, nil)
//	inKentron, err := dir.Buildings(ctx, &kentronID)
//
// The listing criteria are exported so other readers can reuse them against
// the same repositories:
//
//	records, total, err := buildings.List(ctx, repositorycache.BuildingListing(&id))
//
// # Error Handling
//
// Repository errors are returned wrapped and never cached. Cache backend
// failures degrade to a direct repository read.
package repositorycache
