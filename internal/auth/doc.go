// Package auth authenticates local users and guards the administration routes.
//
// Users are stored in the settings database with Argon2id password hashes.
// Only active staff users and superusers may use the administration endpoints:
//
//	authService := auth.NewService(db)
//
//	app.Post("/admin/geoservers",
//	    auth.RequireStaff(authService),
//	    handler,
//	)
package auth
