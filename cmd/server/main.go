package main

import "github.com/Togather-Foundation/voluntier/cmd/server/cmd"

func main() {
	cmd.Execute()
}
