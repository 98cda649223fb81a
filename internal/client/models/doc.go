// Package models defines the data carried between the dashapi client and the
// backend: session credentials, the list envelope and the domain payloads of
// the pass-through services.
package models
