package main

import "github.com/yash-srivastava19/notex/cmd"

func main() {
	cmd.Execute()
}
