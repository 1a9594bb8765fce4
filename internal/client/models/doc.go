// Package models defines the client-side entities: cached directory profiles,
// groups, contacts, blocked users and reports.
package models
