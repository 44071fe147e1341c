// Package notifications delivers render outcomes via ntfy.
//
// NewService publishes to the topic URL configured under [notifications] and
// degrades to a no-op when no topic is set. Callers publish an Event with a
// small string Payload; the service owns titles, tags and priorities so every
// caller produces consistent messages.
package notifications
