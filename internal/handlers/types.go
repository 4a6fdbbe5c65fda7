package handlers

// CreateRedirectRequest is the request for creating a redirect under a caller-chosen id.
type CreateRedirectRequest struct {
	ID   string               `doc:"The short identifier" example:"spring-sale" path:"id"`
	Body *CreateRedirectBody `required:"false"`
}

// CreateRedirectBody describes the redirect target and its lifetime.
type CreateRedirectBody struct {
	OriginalURL  string            `doc:"The redirect target"                          example:"https://example.com/page" json:"originalURL"          minLength:"5"`
	TTLInSeconds int64             `doc:"Lifetime of the redirect in seconds"          example:"86400"                    json:"ttlInSeconds"         maximum:"8640000" minimum:"3600"`
	Attributes   map[string]string `doc:"Extra string attributes stored with the record"                                  json:"attributes,omitempty" required:"false"`
}

// CreateRedirectResponse carries the fully-qualified URL that resolves the new id.
type CreateRedirectResponse struct {
	Status int
	Body   string `doc:"The URL that resolves this id" example:"https://short.example.com/spring-sale"`
}

// ResolveRedirectRequest is the request for resolving an id.
type ResolveRedirectRequest struct {
	ID string `doc:"The short identifier" example:"spring-sale" path:"id"`
}

// RedirectResponse is the redirect to the stored target.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The redirect target" header:"Location"`
}
