package main

import "github.com/pitlane-data/pitwall/cmd"

func main() {
	cmd.Execute()
}
