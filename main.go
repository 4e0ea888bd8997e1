package main

import "decayscope/cmd"

func main() {
	cmd.Execute()
}
