// Package command provides the command definitions of the recofeed CLI.
//
// It uses urfave/cli/v2 for parsing. Every command that talks to the
// recommender builds a runtime from the loaded configuration: the KV
// engine holding snapshots, the remote client and the four feeds.
package command
