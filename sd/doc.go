// Package sd provides the minimal service-discovery surface the client
// runtime's load-balanced target strategy depends on: a Subscriber yields the
// current set of base URLs for a remote service, without prescribing how
// that set is discovered.
package sd
