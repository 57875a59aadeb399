/*
Package ports defines the driven ports (interfaces) for ironflow.

These interfaces decouple sessions and the node registry from concrete
backends, so that templates can come from memory or a Loam repository and
sessions can be kept in memory, on disk, in SQLite or in Redis.

# Key Interfaces

  - TemplateLoader: Provides node templates by identifier.
  - SessionStore: Persists and loads session documents.
  - DistributedLocker: Coordinates concurrent access to one session across replicas.
*/
package ports
