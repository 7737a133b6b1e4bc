package main

import "github.com/timvw/page-patrol/cmd"

func main() {
	cmd.Execute()
}
