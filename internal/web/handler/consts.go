package handler

const (
	// APIPath is the root path of the JSON API route group.
	APIPath = "/api"

	// ErrNilDepsFatalLogMsg is used if app, cfg or a dependency is nil.
	ErrNilDepsFatalLogMsg = "app, cfg or resolver is nil"

	// ParamScope and ParamKey name the route parameters.
	ParamScope = "scope"
	ParamKey   = "key"

	// QueryOwner selects the owning entity of a scope.
	QueryOwner = "owner"
)
