package http

// Route patterns for the challenges HTTP surface.
const (
	routeChallenges    = "/v1/challenges"
	routeChallengeByID = "/v1/challenges/{id:[0-9]+}"
	routeSync          = "/v1/challenges/sync"
)

// Route names for mux URL building.
const (
	routeNameList   = "challenges_list"
	routeNameByID   = "challenges_by_id"
	routeNameSync   = "challenges_sync"
	routeNameCreate = "challenges_create"
)
