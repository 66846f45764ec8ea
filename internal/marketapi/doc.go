// Package marketapi is the client for the marketplace REST API.
//
// Endpoints consumed:
//   - GET <base>/items                    catalog
//   - GET <base>/items/<url_name>/orders  order book of one item
//
// The nominal base URL may be stale or versioned differently than the
// deployed API; ResolveBase probes the known URL shapes and returns the
// first one that answers.
package marketapi
