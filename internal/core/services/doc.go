// Package services implements the driving ports.
//
// A request flows fetch -> chunk -> index -> (retrieve, answer) with the last
// step run once per question under a shared permit pool.
package services
