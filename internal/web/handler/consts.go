package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the path of a route group root.
	RouterRootPath = "/"

	// AdminPath prefixes every staff only route.
	AdminPath = RootPath + "admin"

	// APIPath prefixes the public JSON routes.
	APIPath = RootPath + "api"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"

	// MsgBadRequest is returned when a request can not be handled at all.
	MsgBadRequest = "A problem with your request exists."
	// MsgInternal is returned for unexpected failures.
	MsgInternal = "Internal server error"
)
