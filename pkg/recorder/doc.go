/*
Package recorder accumulates telemetry runs into a persistent store.

Each key (a robot, a test suite, a mission) owns one record. Recording a run
loads the record, merges the run into it and saves it back while holding a
per-key lock: an in-process mutex always, plus an optional distributed lock
when several processes or replicas share the store.
*/
package recorder
