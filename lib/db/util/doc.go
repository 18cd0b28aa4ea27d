// Package util provides small helpers shared by the db.KVDB implementations
// and the command line tools, most notably the seeded FNV-1a string hash used
// for shard selection and replica ids.
package util
