// Package api serves the school search crew over HTTP.
//
// Routes:
//
//	GET  /                         liveness message
//	GET  /health                   service health
//	POST /search-schools           search with a JSON body
//	GET  /search-schools/{location} search with query parameters
//	GET  /curricula                supported curricula
//	GET  /grades                   supported grades
//	GET  /history                  latest stored searches
//
// Every search builds a fresh crew through the configured CrewFactory and
// runs it synchronously with the request context. Crew failures become
// HTTP 500 responses with a {"detail": ...} body.
package api
