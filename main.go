package main

import "github.com/adpace/adpace/cmd"

func main() {
	cmd.Execute()
}
