// Command cinelog is the CLI for the enrichment service: upload Letterboxd
// exports, inspect sessions and run the daemon in the foreground.
package main
