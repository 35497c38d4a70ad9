/*
Package ports defines the driven ports (interfaces) of the analyzer.

These interfaces decouple the core logic from external implementations, so
accumulated telemetry can live in memory, on disk, in SQLite or in Redis.

# Key Interfaces

  - TelemetryStore: persists the telemetry accumulated for a key across runs.
  - DistributedLocker: serializes read-merge-write cycles on a key across
    processes or replicas.

RunTelemetryStoreContract is the shared test suite every store adapter runs.
*/
package ports
