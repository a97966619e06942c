package main

import "github.com/jmehdipour/wablast/cmd"

func main() {
	cmd.Execute()
}
