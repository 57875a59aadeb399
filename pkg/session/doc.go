/*
Package session holds the scripts of an ironflow session and persists them.

A Session is an ordered list of Scripts, each owning one flow.Flow. Serialize
turns a session into a domain.Document and Load rebuilds one from a document,
resolving node templates through a ports.TemplateLoader and reconnecting
ports through the flow's validity check.

The Manager orchestrates concurrent access to stored documents across
replicas, pairing a reference-counted local lock per session with an optional
ports.DistributedLocker in front of a ports.SessionStore.
*/
package session
