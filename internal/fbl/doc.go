// Package fbl decodes the binary trace files written by a behavior tree
// file logger.
//
// A trace file starts with a little-endian u32 header length followed by a
// flatbuffers BehaviorTree snapshot of that length; fixed-size 12-byte status
// change records follow the header. DecodeTrace reads the snapshot,
// DecodeLog reads the records. The console form of the same log is handled
// by ParseLogLine and DecodeTextLog.
package fbl
