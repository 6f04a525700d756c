package main

import "github.com/drgolem/playercore/cmd"

func main() {
	cmd.Execute()
}
