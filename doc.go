// Package main provides the entry point for the ADHydro streamflow service.
// It runs a Fiber web server that lets staff users register watersheds,
// GeoServer connections, data stores and watershed groups, and lets anyone
// browse the watershed map layers and read ADHydro forecast hydrographs
// from NetCDF files on disk. Settings are persisted with gorm.
package main
