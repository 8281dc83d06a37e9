package main

import "github.com/dkozyrev/cavewatch/cmd/cavewatch/cmd"

func main() {
	cmd.Execute()
}
