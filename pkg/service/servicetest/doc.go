// Package servicetest provides test doubles for code built on the service
// factory: a scripted session, a configurable endpoint, a decodable payload
// and a Fetcher mock.
package servicetest
