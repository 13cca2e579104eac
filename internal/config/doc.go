// Package config builds the feedfilter runtime configuration.
//
// Values are layered, each layer overriding the previous one:
//
//  1. defaults (LoadDefaults)
//  2. a JSON file given with -c or -config
//  3. a .env file and FEEDFILTER_* environment variables
//  4. command-line flags
package config
