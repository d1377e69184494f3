// Package main provides the entry point of go-settings, a service for typed,
// scoped application settings. Settings are declared with a type and a
// default in a manifest file; scopes such as "system" or one per user may
// override the default. Only overrides are persisted with gorm. The service
// exposes a JSON API built on Fiber and commands to list, change and clear
// overrides.
package main
