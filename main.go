package main

import "github.com/dotcommander/shs/cmd"

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version string
	commit  string
	date    string
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
