package http

const (
	routeSubmit         = "/v1/challenges/{id:[0-9]+}/submissions"
	routeClaim          = "/v1/challenges/{id:[0-9]+}/claim"
	routeSubmissions    = "/v1/submissions"
	routeSubmissionByID = "/v1/submissions/{submissionID}"
)

const (
	routeNameSubmit = "submissions_submit"
	routeNameClaim  = "submissions_claim"
	routeNameList   = "submissions_list"
	routeNameByID   = "submissions_by_id"
)
