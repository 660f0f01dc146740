// Package auth provides the session middleware of the web service.
//
// Middleware resolves the "session" cookie and stores the session user in
// fiber.Locals under session.LocalUser. It never rejects a request: the public
// map and forecast routes work without a session and the administration
// routes are guarded by auth.RequireStaff.
package auth
