package main

import "qms/pathfinder/cmd"

func main() {
	cmd.Execute()
}
