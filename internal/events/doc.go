// Package events provides the event types and interfaces that decouple
// work producers from the dispatcher. Producers emit WorkRequestEvents
// without knowing which handlers will turn them into scheduled work,
// which keeps collaborator packages free of dispatcher imports.
package events
